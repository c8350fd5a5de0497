package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"

	idempotencyKeyContextKey  = "idempotency_key"
	idempotencyHashContextKey = "idempotency_request_hash"
)

// IdempotencyMiddleware fingerprints the body of requests carrying an
// Idempotency-Key. The order service does the lookup under the admission lock.
func IdempotencyMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		idempotencyKey := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if idempotencyKey == "" {
			c.Next()
			return
		}
		if len(idempotencyKey) > 255 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "idempotency key too long"})
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			logger.Error("Failed to read request body for idempotency", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to process request"})
			return
		}

		// Restore body for handler
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		hash := sha256.Sum256(body)
		c.Set(idempotencyKeyContextKey, idempotencyKey)
		c.Set(idempotencyHashContextKey, hex.EncodeToString(hash[:]))
		c.Next()
	}
}

// GetIdempotencyInfo retrieves the key and request fingerprint, empty when absent
func GetIdempotencyInfo(c *gin.Context) (key string, requestHash string) {
	return c.GetString(idempotencyKeyContextKey), c.GetString(idempotencyHashContextKey)
}
