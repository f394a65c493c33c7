package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storeops/backend/internal/infrastructure/auth"
	"github.com/storeops/backend/internal/infrastructure/logger"
	"github.com/storeops/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Auth context keys
const (
	AuthSubjectKey = "auth_subject"
	AuthNameKey    = "auth_name"
	authHeader     = "Authorization"
	bearerPrefix   = "Bearer "
)

// TokenVerifier validates a bearer token and returns its claims
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthGate rejects requests without a valid bearer token. The caller's
// subject and display name are stored on the gin context for later use.
func AuthGate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authHeader)
		if header == "" {
			abortUnauthorized(c, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(header, bearerPrefix) {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		if token == "" {
			abortUnauthorized(c, "Missing token")
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			logger.GetGinLogger(c).Debug("Token rejected", zap.Error(err))
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, "Token has expired")
				return
			}
			abortUnauthorized(c, "Invalid token")
			return
		}

		c.Set(AuthSubjectKey, claims.Subject)
		c.Set(AuthNameKey, claims.Name)
		c.Next()
	}
}

// GetAuthSubject returns the authenticated subject, or "" on open routes
func GetAuthSubject(c *gin.Context) string {
	return c.GetString(AuthSubjectKey)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrCodeUnauthorized, message, GetRequestID(c)))
}
