package sql

import (
	"strconv"
	"strings"

	appErrors "selectkit/errors"
)

// QuerySpec 描述一条 SELECT 查询
//
// 约定：
//   - From 必填，原样拼接（可包含 JOIN）；
//   - Columns 为 nil 表示 *，显式空切片视为调用错误；
//   - 其余字符串子句为空表示不生成；
//   - Offset 仅在 Limit 非 nil 时生成；
//   - Params 按顺序绑定，nil 元素表示 SQL NULL。
//
// 所有子句文本由调用方保证合法与安全，构建阶段不做解析或转义。
type QuerySpec struct {
	From    string
	Columns []string
	Where   string
	GroupBy string
	Having  string
	OrderBy string
	Limit   *uint64
	Offset  *uint64
	Params  []any
}

// Uint 返回 n 的指针，便于填写 Limit/Offset
func Uint(n uint64) *uint64 { return &n }

// Statement 构建结果：SQL 文本与按序参数
type Statement struct {
	Query string
	Args  []any
}

var (
	// ErrEmptyFrom FROM 子句为空
	ErrEmptyFrom = appErrors.NewError(appErrors.ErrCodeInvalidInput, "select: FROM clause is empty")
	// ErrEmptyColumns 列清单显式为空（非 nil 的零长度切片）
	ErrEmptyColumns = appErrors.NewError(appErrors.ErrCodeInvalidInput, "select: column list is present but empty")
)

// Build 按固定顺序拼接子句：
//
//	SELECT cols FROM src [WHERE w] [GROUP BY g] [HAVING h] [ORDER BY o] [LIMIT n [OFFSET m]]
//
// 片段之间以单个空格分隔，列之间以逗号分隔（无空格）。
// 唯一的失败情形是 ErrEmptyFrom 与 ErrEmptyColumns。
func (s QuerySpec) Build() (Statement, error) {
	if strings.TrimSpace(s.From) == "" {
		return Statement{}, ErrEmptyFrom
	}
	if s.Columns != nil && len(s.Columns) == 0 {
		return Statement{}, ErrEmptyColumns
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if s.Columns == nil {
		sb.WriteString("*")
	} else {
		sb.WriteString(strings.Join(s.Columns, ","))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(s.From)

	if s.Where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(s.Where)
	}
	if s.GroupBy != "" {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(s.GroupBy)
	}
	// HAVING 不要求同时存在 GROUP BY，由调用方负责
	if s.Having != "" {
		sb.WriteString(" HAVING ")
		sb.WriteString(s.Having)
	}
	if s.OrderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(s.OrderBy)
	}
	if s.Limit != nil {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.FormatUint(*s.Limit, 10))
		if s.Offset != nil {
			sb.WriteString(" OFFSET ")
			sb.WriteString(strconv.FormatUint(*s.Offset, 10))
		}
	}

	// 复制参数，避免调用方后续修改切片影响已构建语句
	var args []any
	if len(s.Params) > 0 {
		args = make([]any, len(s.Params))
		copy(args, s.Params)
	}
	return Statement{Query: sb.String(), Args: args}, nil
}

// CountSpec 描述一条 COUNT 查询，不含分组、排序与分页
type CountSpec struct {
	From    string
	Columns []string
	Where   string
	Params  []any
}

// query 派生出 count(<cols>) 的 QuerySpec；Columns 为空（nil 或零长度）时使用 *
func (c CountSpec) query() QuerySpec {
	expr := "*"
	if len(c.Columns) > 0 {
		expr = strings.Join(c.Columns, ",")
	}
	return QuerySpec{
		From:    c.From,
		Columns: []string{"count(" + expr + ")"},
		Where:   c.Where,
		Params:  c.Params,
	}
}
