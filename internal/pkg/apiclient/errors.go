package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误分类
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindValidation      Kind = "validation"
	KindNetwork         Kind = "network"
	KindServer          Kind = "server"
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
)

// Error 统一的接口错误
type Error struct {
	Kind    Kind
	Status  int    // HTTP 状态码，本地错误为 0
	Code    int    // 后端业务码，没有时为 0
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (status=%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage 面向用户展示的提示
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindUnauthenticated:
		return "Please sign in to continue"
	case KindForbidden:
		return "You can only change your own content"
	case KindNotFound:
		return "This item no longer exists"
	}
	return e.Message
}

// Unauthenticated 未登录，不会发出请求
func Unauthenticated() *Error {
	return &Error{Kind: KindUnauthenticated, Message: "no credential present"}
}

// Validation 本地校验失败，不会发出请求
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf 取出错误分类，非 *Error 视为服务端错误
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServer
}

// IsKind 判断错误分类
func IsKind(err error, k Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == k
}

// UserMessage 任意错误的展示文案
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.UserMessage()
	}
	return err.Error()
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthenticated
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	}
	return KindServer
}
