package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabworks/orderapi/internal/repository"
)

func TestRun_UnknownStatus(t *testing.T) {
	err := run(repository.OrderFilter{Status: "Shipped"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown status "Shipped"`)
}

func TestRun_EmptyMemoryStore(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("ENVIRONMENT", "development")

	assert.NoError(t, run(repository.OrderFilter{Limit: 10}))
}
