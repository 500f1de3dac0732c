package interaction

import (
	"learnhub_client/internal/pkg/apiclient"
	"learnhub_client/pkg/logger"

	"go.uber.org/zap"
)

// Operation 卡片上的交互类型
type Operation string

const (
	OpLikeToggle    Operation = "like_toggle"
	OpLikedUsers    Operation = "liked_users"
	OpLoadComments  Operation = "load_comments"
	OpCreateComment Operation = "create_comment"
	OpUpdateComment Operation = "update_comment"
	OpDeleteComment Operation = "delete_comment"
)

// Notifier 在卡片本地展示结果：成功为自动消失的提示，失败需要用户确认
type Notifier interface {
	Success(op Operation, message string)
	Failure(op Operation, err error)
}

// LogNotifier 没有界面时把结果写入日志
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: logger.OrNop(log)}
}

func (n *LogNotifier) Success(op Operation, message string) {
	n.log.Info(message, zap.String("op", string(op)))
}

func (n *LogNotifier) Failure(op Operation, err error) {
	n.log.Warn(apiclient.UserMessage(err),
		zap.String("op", string(op)),
		zap.String("kind", string(apiclient.KindOf(err))),
		zap.Error(err),
	)
}
