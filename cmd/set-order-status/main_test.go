package main

import (
	stderrors "errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabworks/orderapi/pkg/errors"
)

func memoryEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("WHATSAPP_API_URL", "")
	t.Setenv("NOTIFY_TIMEOUT", "1s")
}

func TestRun_InvalidOrderID(t *testing.T) {
	err := run("not-a-uuid", "Accepted")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid order id")
}

func TestRun_FailureReturnsInsteadOfExiting(t *testing.T) {
	memoryEnv(t)

	err := run(uuid.NewString(), "Accepted")

	var nf *errors.ErrNotFound
	require.True(t, stderrors.As(err, &nf), "got %v", err)
	assert.Equal(t, "order", nf.Resource)
}
