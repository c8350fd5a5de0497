package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fabworks/orderapi/internal/config"
	"github.com/fabworks/orderapi/internal/domain"
)

const (
	PrincipalContextKey = "principal"
	AdminKeyHeader      = "X-Admin-Key"
)

// Caller roles carried in the JWT role claim
const (
	RoleCustomer = "customer"
	RoleNoter    = "noter"
	RoleAdmin    = "admin"
)

// Principal is the authenticated caller
type Principal struct {
	Email string
	Role  string
}

func (p *Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// AuthMiddleware authenticates requests by operator key or bearer JWT and
// rejects callers whose role is not in allowedRoles
func AuthMiddleware(cfg config.AuthConfig, logger *zap.Logger, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := strings.TrimSpace(c.GetHeader(AdminKeyHeader)); key != "" {
			if cfg.AdminAPIKeyHash == "" || !VerifyAPIKey(key, cfg.AdminAPIKeyHash) {
				logger.Warn("Rejected operator key", zap.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin key"})
				return
			}
			authorize(c, &Principal{Email: "operator", Role: RoleAdmin}, allowedRoles)
			return
		}

		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		parts := strings.SplitN(raw, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		principal, err := ParseToken(strings.TrimSpace(parts[1]), cfg.JWTSecret)
		if err != nil {
			logger.Warn("Failed to authenticate caller", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		authorize(c, principal, allowedRoles)
	}
}

func authorize(c *gin.Context, p *Principal, allowedRoles []string) {
	if len(allowedRoles) > 0 {
		match := false
		for _, r := range allowedRoles {
			if p.Role == r {
				match = true
				break
			}
		}
		if !match {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
	}

	c.Set(PrincipalContextKey, p)
	c.Next()
}

// ParseToken validates an HS256 token and extracts its email and role claims
func ParseToken(token, secret string) (*Principal, error) {
	if secret == "" {
		return nil, jwt.ErrTokenUnverifiable
	}
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, jwt.ErrTokenRequiredClaimMissing
	}
	switch role {
	case RoleCustomer, RoleNoter, RoleAdmin:
	default:
		return nil, jwt.ErrTokenInvalidClaims
	}
	return &Principal{Email: email, Role: role}, nil
}

// GetPrincipalFromContext retrieves the caller from the Gin context
func GetPrincipalFromContext(c *gin.Context) (*Principal, bool) {
	v, exists := c.Get(PrincipalContextKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok
}

// HashAPIKey hashes an operator key using bcrypt
func HashAPIKey(apiKey string) (string, error) {
	// Use a cost of 10 for API keys (faster than passwords)
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyAPIKey verifies an API key against a hash
func VerifyAPIKey(apiKey, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(apiKey)) == nil
}
