package basic

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"

	core "selectkit/data/db"
)

// ErrStmtClosed 语句已关闭后仍被使用
var ErrStmtClosed = errors.New("basic.Stmt: statement is closed")

// Stmt 包装 *sql.Stmt 以实现 core.IStatement
//
// database/sql 没有独立的绑定步骤，Bind 在此处先做参数值校验并暂存，
// Query 时再整体传给驱动。
type Stmt struct {
	stmt   *sql.Stmt
	args   []any
	closed bool
}

// Bind 校验并暂存参数。nil 表示 SQL NULL。
//
// 校验规则与 database/sql 默认转换一致：基础类型、[]byte、time.Time、
// driver.Valuer 均可；结构体、map 等无法转换的值返回错误，已绑定参数保持不变。
//
// Bind 不知道驱动自带的 driver.NamedValueChecker。默认转换拒绝但驱动可能接受的
// 无符号整数（如高位为 1 的 uint64）在此放行，由驱动在 Query 时判定，
// 驱动拒绝时错误归入执行阶段。
func (s *Stmt) Bind(args ...any) error {
	if s.closed {
		return ErrStmtClosed
	}
	for i, arg := range args {
		if err := checkArg(arg); err != nil {
			return fmt.Errorf("argument #%d: %w", i+1, err)
		}
	}
	s.args = append(s.args[:0:0], args...)
	return nil
}

func checkArg(arg any) error {
	if named, ok := arg.(sql.NamedArg); ok {
		arg = named.Value
	}
	if arg == nil {
		return nil
	}
	_, err := driver.DefaultParameterConverter.ConvertValue(arg)
	if err != nil && isUnsigned(arg) {
		return nil
	}
	return err
}

func isUnsigned(arg any) bool {
	switch reflect.ValueOf(arg).Kind() {
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

// Query 使用已绑定的参数执行语句
func (s *Stmt) Query(ctx context.Context) (core.IRows, error) {
	if s.closed {
		return nil, ErrStmtClosed
	}
	rows, err := s.stmt.QueryContext(ctx, s.args...)
	if err != nil {
		return nil, err
	}
	return &Rows{rows: rows}, nil
}

// Close 关闭底层语句，重复调用返回 nil
func (s *Stmt) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.args = nil
	return s.stmt.Close()
}
