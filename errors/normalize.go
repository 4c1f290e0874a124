package errors

import (
	"context"
	"database/sql"
	stdErrors "errors"
)

// Normalize 将 database/sql 与 context 层的常见错误规范化为 AppError。
//
// 注意：
//   - 如果传入的 err 已经是 IError，则原样返回；
//   - 未识别的错误保持原样，不强行包装，交由调用方决定是否 Wrap。
func Normalize(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := err.(IError); ok {
		return err
	}

	switch {
	case stdErrors.Is(err, sql.ErrNoRows):
		return WrapError(err, ErrCodeNotFound, "记录不存在")
	case stdErrors.Is(err, context.DeadlineExceeded), stdErrors.Is(err, context.Canceled):
		return WrapError(err, ErrCodeTimeout, "操作超时或已取消")
	case stdErrors.Is(err, sql.ErrConnDone), stdErrors.Is(err, sql.ErrTxDone):
		return WrapError(err, ErrCodeDatabase, "数据库连接或事务已结束")
	}

	return err
}
