package notification

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/config"
	"github.com/fabworks/orderapi/internal/domain"
)

func TestWhatsAppSender_PostsTextMessage(t *testing.T) {
	var got whatsAppMessage
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWhatsAppSender(config.WhatsAppConfig{APIURL: srv.URL, APIToken: "tkn"}, srv.Client(), zap.NewNop())
	require.NoError(t, s.SendMessage(context.Background(), "15550001111", "hello"))

	assert.Equal(t, "Bearer tkn", auth)
	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "15550001111", got.To)
	assert.Equal(t, "hello", got.Text.Body)
}

func TestWhatsAppSender_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad number", http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewWhatsAppSender(config.WhatsAppConfig{APIURL: srv.URL}, nil, zap.NewNop())
	err := s.SendMessage(context.Background(), "x", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "bad number")
}

func TestSMTPSender_BuildsEmail(t *testing.T) {
	s := NewSMTPSender(config.SMTPConfig{Host: "smtp.fab.io", Port: "2525", Username: "u", Password: "p", From: "Fabworks <no-reply@fab.io>"}, zap.NewNop())

	var captured *email.Email
	var addr string
	s.send = func(e *email.Email, a string, _ smtp.Auth) error {
		captured, addr = e, a
		return nil
	}

	err := s.SendEmail(context.Background(), EmailMessage{To: []string{"c@x.io"}, Subject: "Hi", HTML: "<b>x</b>"})
	require.NoError(t, err)
	assert.Equal(t, "smtp.fab.io:2525", addr)
	assert.Equal(t, "Fabworks <no-reply@fab.io>", captured.From)
	assert.Equal(t, []string{"c@x.io"}, captured.To)
	assert.Equal(t, []byte("<b>x</b>"), captured.HTML)
}

func TestSMTPSender_Errors(t *testing.T) {
	s := NewSMTPSender(config.SMTPConfig{Host: "smtp.fab.io", Port: "25", From: "a@fab.io"}, zap.NewNop())

	assert.Error(t, s.SendEmail(context.Background(), EmailMessage{Subject: "no recipients"}))

	s.send = func(*email.Email, string, smtp.Auth) error { return stderrors.New("421 busy") }
	err := s.SendEmail(context.Background(), EmailMessage{To: []string{"c@x.io"}})
	assert.ErrorContains(t, err, "421 busy")

	block := make(chan struct{})
	defer close(block)
	s.send = func(*email.Email, string, smtp.Auth) error { <-block; return nil }
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.SendEmail(ctx, EmailMessage{To: []string{"c@x.io"}}), context.DeadlineExceeded)
}

func TestKafkaPublisher_KeysByOrderID(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var msg OrderEventMessage
		if err := json.Unmarshal(val, &msg); err != nil {
			return err
		}
		if msg.Data.Status != domain.OrderStatusAccepted {
			return stderrors.New("unexpected status " + string(msg.Data.Status))
		}
		return nil
	})

	p := newKafkaPublisher(producer, "order-events", zap.NewNop())
	err := p.PublishOrderEvent(context.Background(), OrderEventMessage{
		EventID:   "e1",
		EventType: domain.EventTypeStatusChange,
		OrderID:   "o1",
		Data:      OrderEventSnapshot{Status: domain.OrderStatusAccepted},
	})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestKafkaPublisher_PropagatesFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := newKafkaPublisher(producer, "order-events", zap.NewNop())
	err := p.PublishOrderEvent(context.Background(), OrderEventMessage{OrderID: "o1"})
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}
