package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/config"
)

// WhatsAppSender posts text messages to a WhatsApp Business gateway
type WhatsAppSender struct {
	apiURL string
	token  string
	client *http.Client
	logger *zap.Logger
}

type whatsAppText struct {
	Body string `json:"body"`
}

type whatsAppMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsAppText `json:"text"`
}

// NewWhatsAppSender creates a sender for the configured gateway.
// Request deadlines come from the caller's context.
func NewWhatsAppSender(cfg config.WhatsAppConfig, client *http.Client, logger *zap.Logger) *WhatsAppSender {
	if client == nil {
		client = &http.Client{}
	}
	return &WhatsAppSender{
		apiURL: cfg.APIURL,
		token:  cfg.APIToken,
		client: client,
		logger: logger,
	}
}

func (s *WhatsAppSender) SendMessage(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(whatsAppMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             whatsAppText{Body: body},
	})
	if err != nil {
		return fmt.Errorf("whatsapp: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("whatsapp: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp: gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	s.logger.Info("WhatsApp message sent", zap.String("to", to), zap.Int("status", resp.StatusCode))
	return nil
}
