package errors

import (
	"errors"
	"fmt"
)

// ErrForbidden 记录存在但不属于当前用户
var ErrForbidden = errors.New("无权操作该记录")

// ValidationError 调用方提交的数据违反前置条件（映射为 400）
// 所有校验均在第一次写入前完成，不会留下部分状态
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError 引用的记录不存在或不属于调用方（映射为 404）
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// Validation 创建 ValidationError
func Validation(msg string) error {
	return &ValidationError{Message: msg}
}

// Validationf 按格式创建 ValidationError
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFound 创建 NotFoundError
func NotFound(msg string) error {
	return &NotFoundError{Message: msg}
}

// IsValidation 判断错误链中是否包含 ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound 判断错误链中是否包含 NotFoundError
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
