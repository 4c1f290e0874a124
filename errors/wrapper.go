package errors

import (
	"context"
	"fmt"
	"runtime"

	"selectkit/logging"
)

// Wrap 包装错误，添加错误码和上下文信息
// 建议：在调用边界使用，添加业务上下文
func Wrap(ctx context.Context, err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}

	_, file, line, _ := runtime.Caller(1)

	wrapped := WrapError(err, code, msg)

	// 避免重复记录，使用Debug级别
	logging.GetLogger().Debug(ctx, fmt.Sprintf("错误包装: %s (位置: %s:%d)", msg, file, line))

	return wrapped
}

// WrapWithLog 包装错误并记录警告日志
//
// fields 同时写入日志和错误详情（Details），调用方可在失败后通过
// GetDetails 取回 sql、query_id 等上下文。
func WrapWithLog(ctx context.Context, err error, code ErrorCode, msg string, fields ...logging.Field) error {
	if err == nil {
		return nil
	}

	_, file, line, _ := runtime.Caller(1)

	details := make(map[string]any, len(fields))
	for _, f := range fields {
		details[f.Key] = f.Value
	}
	wrapped := WrapError(err, code, msg).WithDetails(details)

	allFields := append([]logging.Field{
		logging.Error(err),
		logging.String("error_code", string(code)),
		logging.String("location", fmt.Sprintf("%s:%d", file, line)),
	}, fields...)

	logging.GetLogger().Warn(ctx, msg, allFields...)

	return wrapped
}
