package sender

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// LogSender writes emails to the logger instead of delivering them. It is
// selected explicitly with EMAIL_PROVIDER=log.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendEmail(_ context.Context, msg Message) (SendResult, error) {
	body := msg.Text
	if body == "" {
		body = msg.HTML
	}
	s.logger.Info("Email not delivered, logged only",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", body),
	)
	now := time.Now()
	return SendResult{MessageID: fmt.Sprintf("log-%d", now.UnixNano()), SentAt: now}, nil
}
