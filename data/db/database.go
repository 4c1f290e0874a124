// Package db 提供通用的数据库抽象接口
//
// 设计目标：
// 1. 隔离具体的驱动实现（database/sql + 各方言驱动）
// 2. 以窄接口暴露语句生命周期：预编译、绑定、迭代、关闭
// 3. 支持事务操作
// 4. 便于单元测试（Mock）
package db

import (
	"context"
	"database/sql"
)

// IPreparer 能够预编译语句的最小接口
//
// SELECT 执行层只依赖该接口，IDatabase 与 ITransaction 均满足它。
type IPreparer interface {
	// Prepare 预编译 SQL 文本，返回的语句由调用方负责 Close
	Prepare(ctx context.Context, query string) (IStatement, error)
}

// IStatement 已预编译的语句句柄
//
// 约定：
//   - Bind 可多次调用，后一次覆盖前一次；参数值非法时返回错误且不改变已绑定参数；
//   - Query 使用最近一次绑定的参数执行；
//   - Close 幂等，任何时候调用都安全。
type IStatement interface {
	Bind(args ...any) error
	Query(ctx context.Context) (IRows, error)
	Close() error
}

// IDatabase 通用数据库接口
type IDatabase interface {
	IPreparer

	// 执行操作
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)

	// 事务操作
	Begin(ctx context.Context) (ITransaction, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (ITransaction, error)

	// 连接管理
	Ping(ctx context.Context) error
	Close() error

	// 获取原始连接（用于特殊场景）
	Raw() any
}

// IDialectNameProvider 可选接口：提供底层数据库方言名称
//
// 实现方应返回诸如 "mysql"、"sqlite"、"postgres" 等 driver/dialect 名，
// 供 dialect 包推断占位符风格等能力。
type IDialectNameProvider interface {
	// GetDialectName 返回底层数据库方言名称
	GetDialectName() string
}

// ITransaction 事务接口
//
// 事务内只暴露预编译与执行，连接管理仍归属创建它的 IDatabase。
type ITransaction interface {
	IPreparer

	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)

	// 事务控制
	Commit() error
	Rollback() error
}

// IRowReader 单行读取器，仅在一次行回调内有效，不得在回调返回后保留
type IRowReader interface {
	Columns() ([]string, error)
	Scan(dest ...any) error
}

// IRows 查询结果集接口
type IRows interface {
	IRowReader

	// 遍历结果
	Next() bool
	Close() error
	Err() error
}

// DBConfig 数据库配置
type DBConfig struct {
	Driver   string // mysql, postgres, sqlite, etc.
	DSN      string // 完整连接串，设置后优先于 Database
	Database string // sqlite 文件路径或 ":memory:"

	// 连接池配置
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// DataSource 返回传给驱动的连接串
func (c DBConfig) DataSource() string {
	if c.DSN != "" {
		return c.DSN
	}
	return c.Database
}
