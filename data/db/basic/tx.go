package basic

import (
	"context"
	"database/sql"

	core "selectkit/data/db"
	"selectkit/data/db/dialect"
)

// Tx 事务实现，委托给 *sql.Tx；不支持嵌套事务，事务边界由创建它的 DB 协调
type Tx struct {
	tx      *sql.Tx
	dialect dialect.Dialect
}

// Prepare 在事务内预编译语句，语句随事务结束自动失效
func (t *Tx) Prepare(ctx context.Context, query string) (core.IStatement, error) {
	stmt, err := t.tx.PrepareContext(ctx, t.dialect.Rebind(query))
	if err != nil {
		return nil, err
	}
	return &Stmt{stmt: stmt}, nil
}

func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.dialect.Rebind(query), args...)
}

func (t *Tx) Commit() error   { return t.tx.Commit() }
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// GetDialectName 实现 core.IDialectNameProvider，便于在事务上下文中复用方言能力。
func (t *Tx) GetDialectName() string {
	return string(t.dialect.Name())
}
