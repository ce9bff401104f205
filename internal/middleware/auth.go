package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/apperr"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(token string) (*types.TokenClaims, error)
}

// AuthMiddleware rejects requests without a valid token
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			RespondError(c, apperr.ErrAuthRequired)
			return
		}
		if !authenticate(c, validator, header) {
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a token is sent and lets anonymous requests through.
// A token that is present but invalid is still rejected.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header != "" && !authenticate(c, validator, header) {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, validator TokenValidator, header string) bool {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || token == "" || (scheme != "Token" && scheme != "Bearer") {
		RespondError(c, apperr.Unauthorized("invalid authorization header format"))
		return false
	}
	claims, err := validator.ValidateToken(token)
	if err != nil {
		RespondError(c, err)
		return false
	}

	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUsername, claims.Username)
	c.Set(ContextRole, claims.Role)
	return true
}

// ViewerFrom returns the identity set by the auth middleware, or an anonymous viewer
func ViewerFrom(c *gin.Context) types.Viewer {
	id, ok := c.Get(ContextUserID)
	if !ok {
		return types.Anonymous()
	}
	userID, _ := id.(uint)
	return types.Viewer{UserID: userID, IsAdmin: c.GetString(ContextRole) == models.RoleAdmin}
}
