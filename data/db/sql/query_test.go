package sql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "selectkit/errors"
)

func TestBuild_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		spec     QuerySpec
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "仅表名",
			spec:    QuerySpec{From: "users"},
			wantSQL: "SELECT * FROM users",
		},
		{
			name: "列+条件+分页",
			spec: QuerySpec{
				From:    "users",
				Columns: []string{"id", "name"},
				Where:   "age > ?",
				Limit:   Uint(10),
				Offset:  Uint(5),
				Params:  []any{18},
			},
			wantSQL:  "SELECT id,name FROM users WHERE age > ? LIMIT 10 OFFSET 5",
			wantArgs: []any{18},
		},
		{
			name: "全部子句",
			spec: QuerySpec{
				From:    "orders o JOIN users u ON u.id = o.user_id",
				Columns: []string{"u.name", "sum(o.total) AS total"},
				Where:   "o.status = ?",
				GroupBy: "u.name",
				Having:  "sum(o.total) > ?",
				OrderBy: "total DESC",
				Limit:   Uint(3),
				Offset:  Uint(0),
				Params:  []any{"paid", 100},
			},
			wantSQL:  "SELECT u.name,sum(o.total) AS total FROM orders o JOIN users u ON u.id = o.user_id WHERE o.status = ? GROUP BY u.name HAVING sum(o.total) > ? ORDER BY total DESC LIMIT 3 OFFSET 0",
			wantArgs: []any{"paid", 100},
		},
		{
			name:    "OFFSET 无 LIMIT 时忽略",
			spec:    QuerySpec{From: "users", Offset: Uint(5)},
			wantSQL: "SELECT * FROM users",
		},
		{
			name:    "LIMIT 0 仍生成",
			spec:    QuerySpec{From: "users", Limit: Uint(0)},
			wantSQL: "SELECT * FROM users LIMIT 0",
		},
		{
			name:    "HAVING 不要求 GROUP BY",
			spec:    QuerySpec{From: "users", Having: "count(*) > 1"},
			wantSQL: "SELECT * FROM users HAVING count(*) > 1",
		},
		{
			name:     "NULL 参数原样保留",
			spec:     QuerySpec{From: "users", Where: "nickname IS ? AND age > ?", Params: []any{nil, 3}},
			wantSQL:  "SELECT * FROM users WHERE nickname IS ? AND age > ?",
			wantArgs: []any{nil, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := tt.spec.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, stmt.Query)
			assert.Equal(t, tt.wantArgs, stmt.Args)
		})
	}
}

func TestBuild_Rejections(t *testing.T) {
	_, err := QuerySpec{From: "users", Columns: []string{}}.Build()
	assert.ErrorIs(t, err, ErrEmptyColumns)
	assert.True(t, appErrors.IsInvalidInput(err))

	_, err = QuerySpec{From: "  "}.Build()
	assert.ErrorIs(t, err, ErrEmptyFrom)
	assert.True(t, appErrors.IsInvalidInput(err))
}

func TestBuild_ArgsCopied(t *testing.T) {
	params := []any{1, 2}
	stmt, err := QuerySpec{From: "t", Where: "a = ? AND b = ?", Params: params}.Build()
	require.NoError(t, err)

	params[0] = 99
	assert.Equal(t, []any{1, 2}, stmt.Args)
}

// TestBuild_ClauseOrder 穷举可选子句组合，校验关键字顺序与出现情况
func TestBuild_ClauseOrder(t *testing.T) {
	type clause struct {
		keyword string
		set     func(*QuerySpec)
	}
	clauses := []clause{
		{" WHERE ", func(s *QuerySpec) { s.Where = "w = 1" }},
		{" GROUP BY ", func(s *QuerySpec) { s.GroupBy = "g" }},
		{" HAVING ", func(s *QuerySpec) { s.Having = "h > 0" }},
		{" ORDER BY ", func(s *QuerySpec) { s.OrderBy = "o" }},
		{" LIMIT ", func(s *QuerySpec) { s.Limit = Uint(7) }},
		{" OFFSET ", func(s *QuerySpec) { s.Offset = Uint(2) }},
	}

	for mask := 0; mask < 1<<len(clauses); mask++ {
		spec := QuerySpec{From: "t"}
		if mask&1 == 1 {
			spec.Columns = []string{"a", "b"}
		}
		for i, c := range clauses {
			if mask&(1<<i) != 0 {
				c.set(&spec)
			}
		}

		stmt, err := spec.Build()
		require.NoError(t, err)
		q := stmt.Query

		require.True(t, strings.HasPrefix(q, "SELECT "), q)
		last := strings.Index(q, " FROM t")
		require.Greater(t, last, 0, q)

		for i, c := range clauses {
			want := mask&(1<<i) != 0
			if c.keyword == " OFFSET " {
				want = want && spec.Limit != nil
			}
			idx := strings.Index(q, c.keyword)
			if !want {
				assert.Equal(t, -1, idx, "mask=%b %q 不应出现在 %q", mask, c.keyword, q)
				continue
			}
			require.NotEqual(t, -1, idx, "mask=%b 缺少 %q: %q", mask, c.keyword, q)
			assert.Greater(t, idx, last, "mask=%b %q 顺序错误: %q", mask, c.keyword, q)
			last = idx
		}
		assert.NotContains(t, q, "  ", "片段之间只允许单个空格")
	}
}

func TestCountSpec_Query(t *testing.T) {
	stmt, err := CountSpec{From: "users"}.query().Build()
	require.NoError(t, err)
	assert.Equal(t, "SELECT count(*) FROM users", stmt.Query)

	stmt, err = CountSpec{From: "users", Columns: []string{}, Where: "active = ?", Params: []any{true}}.query().Build()
	require.NoError(t, err)
	assert.Equal(t, "SELECT count(*) FROM users WHERE active = ?", stmt.Query)
	assert.Equal(t, []any{true}, stmt.Args)

	stmt, err = CountSpec{From: "users", Columns: []string{"DISTINCT name"}}.query().Build()
	require.NoError(t, err)
	assert.Equal(t, "SELECT count(DISTINCT name) FROM users", stmt.Query)
}
