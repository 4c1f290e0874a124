package errors

import (
	stdErrors "errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorCode 错误代码类型
type ErrorCode string

// 预定义错误代码
const (
	// 通用错误代码
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeTimeout      ErrorCode = "TIMEOUT"

	// 基础设施错误代码
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"

	// 语句生命周期错误代码：按失败阶段区分
	ErrCodePrepare ErrorCode = "PREPARE_ERROR"
	ErrCodeBind    ErrorCode = "BIND_ERROR"
	ErrCodeExecute ErrorCode = "EXECUTE_ERROR"
	ErrCodeRead    ErrorCode = "READ_ERROR"
)

// IError 错误接口
type IError interface {
	error

	// 获取错误代码
	Code() ErrorCode

	// 获取错误消息
	Message() string

	// 获取原始错误
	Cause() error

	// 获取错误详情
	Details() map[string]any

	// 获取堆栈信息
	Stack() string

	// 是否为指定类型的错误
	Is(target error) bool

	// 添加详情
	WithDetails(details map[string]any) IError

	// 添加上下文
	WithContext(key string, value any) IError
}

// AppError 应用错误实现
type AppError struct {
	code    ErrorCode
	message string
	cause   error
	details map[string]any
	stack   string
}

// NewError 创建新错误
func NewError(code ErrorCode, message string) IError {
	return &AppError{
		code:    code,
		message: message,
		details: make(map[string]any),
		stack:   captureStack(),
	}
}

// WrapError 包装错误，err 为 nil 时返回 nil
func WrapError(err error, code ErrorCode, message string) IError {
	if err == nil {
		return nil
	}

	return &AppError{
		code:    code,
		message: message,
		cause:   err,
		details: make(map[string]any),
		stack:   captureStack(),
	}
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

// Code 获取错误代码
func (e *AppError) Code() ErrorCode {
	return e.code
}

// Message 获取错误消息
func (e *AppError) Message() string {
	return e.message
}

// Cause 获取原始错误
func (e *AppError) Cause() error {
	return e.cause
}

// Details 获取错误详情
func (e *AppError) Details() map[string]any {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	return e.details
}

// Stack 获取堆栈信息
func (e *AppError) Stack() string {
	return e.stack
}

// Is 检查是否为指定类型的错误
//
// 两个 AppError 在错误代码相同时视为同类；否则沿 cause 链继续比较。
func (e *AppError) Is(target error) bool {
	if target == nil {
		return false
	}

	if appErr, ok := target.(*AppError); ok {
		return e.code == appErr.code
	}

	if e.cause != nil {
		return stdErrors.Is(e.cause, target)
	}

	return false
}

// Unwrap 解包错误（支持 errors.Unwrap）
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithDetails 添加详情
func (e *AppError) WithDetails(details map[string]any) IError {
	newDetails := copyMap(e.details)
	for k, v := range details {
		newDetails[k] = v
	}

	return &AppError{
		code:    e.code,
		message: e.message,
		cause:   e.cause,
		details: newDetails,
		stack:   e.stack,
	}
}

// WithContext 添加上下文
func (e *AppError) WithContext(key string, value any) IError {
	newDetails := copyMap(e.details)
	newDetails[key] = value

	return &AppError{
		code:    e.code,
		message: e.message,
		cause:   e.cause,
		details: newDetails,
		stack:   e.stack,
	}
}

// 预定义错误变量，仅用于 errors.Is 按错误代码比较
var (
	ErrInvalidInput = NewError(ErrCodeInvalidInput, "无效的输入参数")
	ErrNotFound     = NewError(ErrCodeNotFound, "资源未找到")
	ErrTimeout      = NewError(ErrCodeTimeout, "操作超时")
	ErrDatabase     = NewError(ErrCodeDatabase, "数据库错误")
	ErrPrepare      = NewError(ErrCodePrepare, "语句预编译失败")
	ErrBind         = NewError(ErrCodeBind, "参数绑定失败")
	ErrExecute      = NewError(ErrCodeExecute, "语句执行失败")
	ErrRead         = NewError(ErrCodeRead, "结果读取失败")
)

// IsNotFound 检查是否为未找到错误
func IsNotFound(err error) bool {
	return IsErrorCode(err, ErrCodeNotFound)
}

// IsInvalidInput 检查是否为输入错误
func IsInvalidInput(err error) bool {
	return IsErrorCode(err, ErrCodeInvalidInput)
}

// IsPrepareError 检查是否为预编译阶段错误
func IsPrepareError(err error) bool {
	return IsErrorCode(err, ErrCodePrepare)
}

// IsBindError 检查是否为参数绑定阶段错误
func IsBindError(err error) bool {
	return IsErrorCode(err, ErrCodeBind)
}

// IsExecuteError 检查是否为执行阶段错误
func IsExecuteError(err error) bool {
	return IsErrorCode(err, ErrCodeExecute)
}

// IsReadError 检查是否为行读取阶段错误
func IsReadError(err error) bool {
	return IsErrorCode(err, ErrCodeRead)
}

// IsErrorCode 检查是否为指定错误代码（取错误链上第一个 AppError）
func IsErrorCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if stdErrors.As(err, &appErr) {
		return appErr.code == code
	}

	return false
}

// GetErrorCode 获取错误代码
func GetErrorCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if stdErrors.As(err, &appErr) {
		return appErr.code
	}

	return ErrCodeInternal
}

// GetDetails 获取错误链上第一个 AppError 的详情，不存在时返回 nil
func GetDetails(err error) map[string]any {
	var appErr *AppError
	if stdErrors.As(err, &appErr) {
		return appErr.Details()
	}
	return nil
}

// GetStack 获取错误链上第一个 AppError 的创建堆栈，不存在时返回空串
func GetStack(err error) string {
	var appErr *AppError
	if stdErrors.As(err, &appErr) {
		return appErr.Stack()
	}
	return ""
}

// captureStack 捕获堆栈信息
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var builder strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		builder.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))

		if !more {
			break
		}
	}

	return builder.String()
}

// copyMap 复制映射
func copyMap(original map[string]any) map[string]any {
	if original == nil {
		return make(map[string]any)
	}

	copied := make(map[string]any, len(original))
	for k, v := range original {
		copied[k] = v
	}

	return copied
}
