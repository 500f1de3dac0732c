package interaction

import (
	"errors"

	"learnhub_client/internal/pkg/apiclient"
)

var (
	// ErrInFlight 同类操作正在进行，本次调用被忽略且没有发出请求
	ErrInFlight = errors.New("operation already in flight")
	// ErrClosed 卡片已销毁，请求结果被丢弃
	ErrClosed          = errors.New("controller closed")
	ErrNotEditing      = errors.New("no comment is being edited")
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotOwner        = errors.New("only the author can change this comment")
)

func notOwner() error {
	return &apiclient.Error{Kind: apiclient.KindForbidden, Message: ErrNotOwner.Error(), Err: ErrNotOwner}
}

func emptyText() error {
	return apiclient.Validation("comment text must not be empty")
}
