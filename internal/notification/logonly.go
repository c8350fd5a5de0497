package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogEmailSender stands in for SMTP when no relay is configured
type LogEmailSender struct {
	Logger *zap.Logger
}

func (s LogEmailSender) SendEmail(ctx context.Context, msg EmailMessage) error {
	s.Logger.Info("Email not sent (SMTP not configured)",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// LogMessageSender stands in for WhatsApp when no gateway is configured
type LogMessageSender struct {
	Logger *zap.Logger
}

func (s LogMessageSender) SendMessage(ctx context.Context, to, body string) error {
	s.Logger.Info("WhatsApp message not sent (gateway not configured)", zap.String("to", to))
	return nil
}
