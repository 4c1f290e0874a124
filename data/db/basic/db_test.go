package basic

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	core "selectkit/data/db"
	"selectkit/data/db/dialect"
)

// 测试辅助函数：创建内存数据库并初始化表
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	// 内存库每个连接独立，限制为单连接保证表可见
	db, err := New(core.DBConfig{Driver: "sqlite", Database: ":memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.MustExecDDL(`
        CREATE TABLE users (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            age INTEGER NOT NULL,
            nickname TEXT NULL
        );
    `))
	ctx := context.Background()
	for _, u := range []struct {
		name string
		age  int
	}{{"alice", 20}, {"bob", 17}, {"carol", 30}} {
		_, err := db.Exec(ctx, "INSERT INTO users (name, age) VALUES (?, ?)", u.name, u.age)
		require.NoError(t, err)
	}
	return db
}

func collectNames(t *testing.T, rows core.IRows) []string {
	t.Helper()
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(core.DBConfig{Driver: "no-such-driver", Database: ":memory:"})
	assert.Error(t, err)
}

func TestDB_DialectName(t *testing.T) {
	db := setupTestDB(t)
	assert.Equal(t, "sqlite", db.GetDialectName())
	assert.IsType(t, &sql.DB{}, db.Raw())
	assert.NoError(t, db.Ping(context.Background()))
}

func TestStmt_BindAndQuery(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	stmt, err := db.Prepare(ctx, "SELECT name FROM users WHERE age >= ? ORDER BY age")
	require.NoError(t, err)
	defer stmt.Close()

	require.NoError(t, stmt.Bind(18))
	rows, err := stmt.Query(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, collectNames(t, rows))

	// 重新绑定覆盖旧参数
	require.NoError(t, stmt.Bind(25))
	rows, err = stmt.Query(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, collectNames(t, rows))
}

func TestStmt_BindNull(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	stmt, err := db.Prepare(ctx, "SELECT name FROM users WHERE nickname IS ? ORDER BY id")
	require.NoError(t, err)
	defer stmt.Close()

	require.NoError(t, stmt.Bind(nil))
	rows, err := stmt.Query(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, collectNames(t, rows))
}

func TestStmt_BindRejectsInvalidValue(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	stmt, err := db.Prepare(ctx, "SELECT name FROM users WHERE age >= ? ORDER BY age")
	require.NoError(t, err)
	defer stmt.Close()

	require.NoError(t, stmt.Bind(18))
	err = stmt.Bind(struct{ Age int }{18})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "argument #1")

	// 失败的 Bind 不覆盖之前的参数
	rows, err := stmt.Query(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, collectNames(t, rows))
}

func TestStmt_BindNamedArg(t *testing.T) {
	stmt := &Stmt{}
	assert.NoError(t, stmt.Bind(sql.Named("age", 18), sql.NullString{}))
	assert.Error(t, stmt.Bind(sql.Named("age", map[string]int{})))
}

func TestStmt_CloseIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	stmt, err := db.Prepare(ctx, "SELECT name FROM users")
	require.NoError(t, err)

	assert.NoError(t, stmt.Close())
	assert.NoError(t, stmt.Close())

	_, err = stmt.Query(ctx)
	assert.ErrorIs(t, err, ErrStmtClosed)
	assert.ErrorIs(t, stmt.Bind(1), ErrStmtClosed)
}

func TestDB_PrepareInvalidSQL(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.Prepare(context.Background(), "SELECT FROM WHERE")
	assert.Error(t, err)
}

func TestTx_Prepare(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(ctx, "INSERT INTO users (name, age) VALUES (?, ?)", "dave", 40)
	require.NoError(t, err)

	stmt, err := tx.Prepare(ctx, "SELECT name FROM users WHERE age > ?")
	require.NoError(t, err)
	defer stmt.Close()

	require.NoError(t, stmt.Bind(35))
	rows, err := stmt.Query(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dave"}, collectNames(t, rows))

	assert.Equal(t, "sqlite", tx.(core.IDialectNameProvider).GetDialectName())
	assert.Equal(t, dialect.NameSQLite, dialect.FromDatabase(tx).Name())
}

func TestDB_FromDatabase(t *testing.T) {
	db := setupTestDB(t)
	assert.Equal(t, dialect.NameSQLite, dialect.FromDatabase(db).Name())

	pg := Wrap(db.Raw().(*sql.DB), "postgres")
	assert.Equal(t, dialect.NamePostgres, dialect.FromDatabase(pg).Name())
}

func TestStmt_BindDefersUnsignedRangeToDriver(t *testing.T) {
	db := setupTestDB(t)
	stmt, err := db.Prepare(context.Background(), "SELECT name FROM users WHERE id = ?")
	require.NoError(t, err)
	defer stmt.Close()

	// 高位为 1 的 uint64 是否可用由驱动决定，Bind 不提前拒绝
	require.NoError(t, stmt.Bind(uint64(1)<<63))
	assert.Equal(t, []any{uint64(1) << 63}, stmt.(*Stmt).args)

	assert.Error(t, stmt.Bind(map[string]int{"a": 1}))
	assert.Equal(t, []any{uint64(1) << 63}, stmt.(*Stmt).args)
}
