package dialect

import (
	"strconv"
	"strings"

	core "selectkit/data/db"
)

// Name 标准化的数据库方言名称
type Name string

const (
	NameMySQL    Name = "mysql"
	NameSQLite   Name = "sqlite"
	NamePostgres Name = "postgres"
	NameUnknown  Name = ""
)

// Dialect 表示当前数据库的方言能力
//
// 目前只抽象占位符风格：Postgres 使用 $n，其余使用 ?。
type Dialect struct {
	name Name
}

// New 根据字符串构造方言（大小写不敏感），同时接受驱动注册名
func New(name string) Dialect {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql":
		return Dialect{name: NameMySQL}
	case "sqlite", "sqlite3":
		return Dialect{name: NameSQLite}
	case "postgres", "postgresql", "pgx":
		return Dialect{name: NamePostgres}
	default:
		return Dialect{name: NameUnknown}
	}
}

// FromDatabase 从数据库或事务实例推断方言
//
// 需要实例可选实现 IDialectNameProvider 接口；否则返回 Unknown。
func FromDatabase(db core.IPreparer) Dialect {
	if db == nil {
		return Dialect{name: NameUnknown}
	}
	if p, ok := db.(core.IDialectNameProvider); ok {
		return New(p.GetDialectName())
	}
	return Dialect{name: NameUnknown}
}

// Name 返回标准化方言名
func (d Dialect) Name() Name {
	return d.name
}

// Rebind 将通用占位符 ? 转换为方言特定形式。
//
// 目前仅对 Postgres 做替换，将 ? 依次替换为 $1、$2...；其他方言保持原样。
//
// 扫描时跳过单引号字符串字面量与双引号标识符（包括 '' 转义），
// 因此 WHERE name = 'what?' 中的 ? 不会被替换。不处理注释。
func (d Dialect) Rebind(query string) string {
	if query == "" || d.name != NamePostgres {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 4)
	argIndex := 1
	var quote byte
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case quote != 0:
			// 引号内：遇到相同引号即结束（'' 会被视为结束后立即重新开始，结果一致）
			if ch == quote {
				quote = 0
			}
			sb.WriteByte(ch)
		case ch == '\'' || ch == '"':
			quote = ch
			sb.WriteByte(ch)
		case ch == '?':
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(argIndex))
			argIndex++
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}
