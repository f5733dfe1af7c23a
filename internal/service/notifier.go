package service

import (
	"context"

	"go.uber.org/zap"

	"campus-roster/backend/internal/model"
	"campus-roster/backend/internal/repository"
	"campus-roster/backend/pkg/mailer"
)

// Notifier 通知分发器
// 先落库站内通知，再尽力发送邮件；邮件失败只记日志，不影响调用方。
// 发布/换班等事务内的状态变更完成后才调用，通知不参与事务回滚。
type Notifier interface {
	// Notify 给单个用户发一条通知
	Notify(ctx context.Context, user *model.User, notifType, subject, message string) error
	// NotifyAll 批量通知，返回成功入库的条数
	NotifyAll(ctx context.Context, users []model.User, notifType, subject, message string) int
}

type notifier struct {
	repo   *repository.Repository
	mail   *mailer.Mailer
	logger *zap.Logger
}

// NewNotifier 创建 Notifier 实例
func NewNotifier(repo *repository.Repository, mail *mailer.Mailer, logger *zap.Logger) Notifier {
	return &notifier{repo: repo, mail: mail, logger: logger}
}

func (n *notifier) Notify(ctx context.Context, user *model.User, notifType, subject, message string) error {
	entry := &model.Notification{
		UserID:           user.UserID,
		Message:          message,
		NotificationType: notifType,
	}
	if err := n.repo.Notification.Create(ctx, entry); err != nil {
		n.logger.Error("写入站内通知失败",
			zap.String("user_id", user.UserID),
			zap.String("type", notifType),
			zap.Error(err),
		)
		return err
	}

	if n.mail.Enabled() {
		// 邮件为尽力而为通道，失败已在 mailer 内记日志
		_ = n.mail.Send(ctx, user.Email, subject, message)
	}
	return nil
}

func (n *notifier) NotifyAll(ctx context.Context, users []model.User, notifType, subject, message string) int {
	sent := 0
	for i := range users {
		if err := n.Notify(ctx, &users[i], notifType, subject, message); err == nil {
			sent++
		}
	}
	return sent
}
