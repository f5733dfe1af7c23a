package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"campus-roster/backend/config"
)

// Mailer SMTP 邮件发送器
// 作为通知接收端（Notification Sink）的邮件实现；发送失败只记录日志，
// 由调用方决定是否计入降级统计，绝不影响业务事务。
type Mailer struct {
	cfg    *config.MailConfig
	logger *zap.Logger
}

// NewMailer 创建 Mailer 实例
func NewMailer(cfg *config.MailConfig, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger}
}

// Enabled 邮件通道是否启用
func (m *Mailer) Enabled() bool {
	return m.cfg.Enabled
}

// Send 发送一封纯文本邮件
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if !m.cfg.Enabled {
		return nil // 未启用时静默跳过
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)

	var sb strings.Builder
	sb.WriteString("From: " + m.cfg.From + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(sb.String())); err != nil {
		m.logger.Warn("邮件发送失败",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	return nil
}
