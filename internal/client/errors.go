package client

import (
	"errors"
	"fmt"
)

// ErrEmptyReply 上游返回成功但 reply 为空
var ErrEmptyReply = errors.New("upstream returned empty reply")

// UnreachableError 连接失败、超时、DNS 等传输层错误
type UnreachableError struct {
	URL string
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("upstream request failed: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// AuthError 上游拒绝了转发的 key，与网关自身的认证失败区分
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("upstream unauthorized (check api key): %d", e.StatusCode)
}

// StatusError 其他非成功状态，Body 为截断后的响应片段
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream error: %d %s", e.StatusCode, e.Body)
}

// IsUpstream 判断错误是否来自上游
func IsUpstream(err error) bool {
	var (
		unreachable *UnreachableError
		auth        *AuthError
		status      *StatusError
	)
	return errors.Is(err, ErrEmptyReply) ||
		errors.As(err, &unreachable) ||
		errors.As(err, &auth) ||
		errors.As(err, &status)
}
