package sql

import (
	"context"
	"errors"

	"github.com/google/uuid"

	core "selectkit/data/db"
	appErrors "selectkit/errors"
	"selectkit/logging"
)

// ErrRowExpired 行读取器在其回调返回后仍被使用
var ErrRowExpired = errors.New("select: row reader used outside its collector call")

// ErrNilCollector 未提供行回调
var ErrNilCollector = appErrors.NewError(appErrors.ErrCodeInvalidInput, "select: collector is nil")

// call 记录一次执行的上下文，用于日志与错误详情
type call struct {
	id    string
	query string
	args  int
}

func (c call) fields(extra ...logging.Field) []logging.Field {
	return append([]logging.Field{
		logging.String("query_id", c.id),
		logging.String("sql", c.query),
		logging.Int("args", c.args),
	}, extra...)
}

func (c call) fail(ctx context.Context, err error, code appErrors.ErrorCode, msg string, extra ...logging.Field) error {
	return appErrors.WrapWithLog(ctx, err, code, msg, c.fields(extra...)...)
}

// closeStmt 关闭语句句柄；关闭失败只记录日志，不覆盖调用结果
func (c call) closeStmt(ctx context.Context, stmt core.IStatement) {
	if err := stmt.Close(); err != nil {
		logging.GetLogger().Warn(ctx, "select: close statement failed", c.fields(logging.Error(err))...)
	}
}

// prepare 构建、预编译并绑定参数。
//
// 返回的语句已绑定参数，由调用方负责关闭；绑定失败时语句在返回前已关闭。
// 参数为空时不调用 Bind。
func prepare(ctx context.Context, p core.IPreparer, spec QuerySpec) (call, core.IStatement, error) {
	built, err := spec.Build()
	if err != nil {
		return call{}, nil, err
	}

	c := call{id: uuid.NewString(), query: built.Query, args: len(built.Args)}
	logging.GetLogger().Debug(ctx, "select: prepare", c.fields()...)

	stmt, err := p.Prepare(ctx, built.Query)
	if err != nil {
		return c, nil, c.fail(ctx, err, appErrors.ErrCodePrepare, "select: prepare failed")
	}
	if len(built.Args) > 0 {
		if err := stmt.Bind(built.Args...); err != nil {
			c.closeStmt(ctx, stmt)
			return c, nil, c.fail(ctx, err, appErrors.ErrCodeBind, "select: bind failed")
		}
	}
	return c, stmt, nil
}

// PrepareSelectFrom 构建并预编译 SELECT，返回已绑定参数的语句。
//
// 成功时句柄所有权转移给调用方，调用方必须 Close；失败时不返回句柄。
func PrepareSelectFrom(ctx context.Context, p core.IPreparer, spec QuerySpec) (core.IStatement, error) {
	_, stmt, err := prepare(ctx, p, spec)
	if err != nil {
		return nil, err
	}
	return stmt, nil
}

// SelectFrom 执行 SELECT，对每一行调用 collect 并按行序收集结果。
//
// 无匹配行时返回空切片（非 nil）。任一阶段失败返回 nil 与带阶段错误码的错误：
// PREPARE_ERROR、BIND_ERROR、EXECUTE_ERROR、READ_ERROR（含 collect 返回的错误）。
// 无论成功、失败或 collect panic，语句句柄都在返回前关闭。
//
// collect 每行调用一次，传入的 row 仅在本次调用内有效，不得保留。
func SelectFrom[T any](ctx context.Context, p core.IPreparer, spec QuerySpec, collect func(row core.IRowReader) (T, error)) ([]T, error) {
	if collect == nil {
		return nil, ErrNilCollector
	}

	c, stmt, err := prepare(ctx, p, spec)
	if err != nil {
		return nil, err
	}
	defer c.closeStmt(ctx, stmt)

	rows, err := stmt.Query(ctx)
	if err != nil {
		return nil, c.fail(ctx, err, appErrors.ErrCodeExecute, "select: query failed")
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		row := &scopedRow{rows: rows}
		v, err := collect(row)
		row.rows = nil
		if err != nil {
			return nil, c.fail(ctx, err, appErrors.ErrCodeRead, "select: collect row failed", logging.Int("row", len(out)))
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, c.fail(ctx, err, appErrors.ErrCodeRead, "select: iterate rows failed", logging.Int("row", len(out)))
	}

	logging.GetLogger().Debug(ctx, "select: done", c.fields(logging.Int("rows", len(out)))...)
	return out, nil
}

// CountFrom 执行 SELECT count(<cols>)，读取第一行第一列为 int64。
//
// 结果集为空时返回 0 与 nil 错误；预编译、绑定、执行或读取失败时返回错误。
func CountFrom(ctx context.Context, p core.IPreparer, spec CountSpec) (int64, error) {
	c, stmt, err := prepare(ctx, p, spec.query())
	if err != nil {
		return 0, err
	}
	defer c.closeStmt(ctx, stmt)

	rows, err := stmt.Query(ctx)
	if err != nil {
		return 0, c.fail(ctx, err, appErrors.ErrCodeExecute, "count: query failed")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, c.fail(ctx, err, appErrors.ErrCodeRead, "count: iterate rows failed")
		}
		return 0, nil
	}

	var n int64
	if err := rows.Scan(&n); err != nil {
		return 0, c.fail(ctx, err, appErrors.ErrCodeRead, "count: scan failed")
	}
	return n, nil
}

// scopedRow 将 IRows 限定为单行读取器，回调返回后失效
type scopedRow struct {
	rows core.IRows
}

func (r *scopedRow) Columns() ([]string, error) {
	if r.rows == nil {
		return nil, ErrRowExpired
	}
	return r.rows.Columns()
}

func (r *scopedRow) Scan(dest ...any) error {
	if r.rows == nil {
		return ErrRowExpired
	}
	return r.rows.Scan(dest...)
}

// ScanValues 将当前行按列读取为 []any，可直接作为 SelectFrom 的 collect
//
// []byte 值会被复制，避免驱动复用缓冲区。
func ScanValues(row core.IRowReader) ([]any, error) {
	cols, err := row.Columns()
	if err != nil {
		return nil, err
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := row.Scan(ptrs...); err != nil {
		return nil, err
	}
	for i, v := range vals {
		if b, ok := v.([]byte); ok {
			vals[i] = append([]byte(nil), b...)
		}
	}
	return vals, nil
}
