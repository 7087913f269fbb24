package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "honquedoro/internal/errors"
	"honquedoro/internal/model"
	"honquedoro/internal/service"
)

const userIDKey = "userID"

// Auth resolves the caller from a bearer token. When required is false a
// request without a token acts as the default user; a token that is present
// must still be valid.
func Auth(authService *service.AuthService, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" && !required {
			c.Set(userIDKey, model.DefaultUserID)
			return
		}

		token, apiErr := bearerToken(header)
		if apiErr != nil {
			writeError(c, apiErr)
			return
		}
		userID, apiErr := authService.ParseToken(token)
		if apiErr != nil {
			writeError(c, apiErr)
			return
		}
		c.Set(userIDKey, userID)
	}
}

// bearerToken extracts the token from an Authorization header. The scheme is
// matched case-insensitively.
func bearerToken(header string) (string, *apperrors.APIError) {
	if header == "" {
		return "", apperrors.Unauthorized("missing authorization header")
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", apperrors.Unauthorized("invalid authorization format")
	}
	return token, nil
}

// UserID returns the caller resolved by Auth, or "" outside the protected
// group.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
}
