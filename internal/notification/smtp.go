package notification

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/config"
)

// SMTPSender sends HTML email through an SMTP relay
type SMTPSender struct {
	addr   string
	auth   smtp.Auth
	from   string
	logger *zap.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSMTPSender creates a sender for the configured relay
func NewSMTPSender(cfg config.SMTPConfig, logger *zap.Logger) *SMTPSender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPSender{
		addr:   cfg.Host + ":" + cfg.Port,
		auth:   auth,
		from:   cfg.From,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

func (s *SMTPSender) SendEmail(ctx context.Context, msg EmailMessage) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("email %q has no recipients", msg.Subject)
	}

	e := email.NewEmail()
	e.From = s.from
	e.To = msg.To
	e.Subject = msg.Subject
	e.HTML = []byte(msg.HTML)

	// net/smtp has no context support; give up waiting once ctx expires
	done := make(chan error, 1)
	go func() { done <- s.send(e, s.addr, s.auth) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %v: %w", msg.To, err)
		}
		s.logger.Info("Email sent", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %v: %w", msg.To, ctx.Err())
	}
}
