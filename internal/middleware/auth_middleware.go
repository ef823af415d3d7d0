package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_shop/internal/utils"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID  = "user_id"
	ContextEmail   = "email"
	ContextIsStaff = "is_staff"
)

// AuthMiddleware authenticates requests with a Bearer access token.
type AuthMiddleware struct {
	tokens *utils.TokenManager
}

// NewAuthMiddleware constructs a new AuthMiddleware.
func NewAuthMiddleware(tokens *utils.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle rejects requests without a valid token.
func (m *AuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			utils.AbortError(c, 401, "UNAUTHORIZED", "Authentication credentials were not provided")
			return
		}

		claims, err := m.tokens.ValidateJWT(token)
		if err != nil {
			utils.AbortError(c, 401, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// Optional identifies the caller when a valid token is present and lets
// anonymous requests through.
func (m *AuthMiddleware) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := m.tokens.ValidateJWT(token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// RequireStaff must run after Handle.
func (m *AuthMiddleware) RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ContextIsStaff) {
			utils.AbortError(c, 403, "FORBIDDEN", "You do not have permission to perform this action")
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user id, or 0.
func GetUserID(c *gin.Context) int {
	return c.GetInt(ContextUserID)
}

// CacheIdentity names the caller for result caching: "user:<id>" or "anon".
func CacheIdentity(c *gin.Context) string {
	if id := GetUserID(c); id > 0 {
		return "user:" + strconv.Itoa(id)
	}
	return "anon"
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setClaims(c *gin.Context, claims *utils.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextEmail, claims.Email)
	c.Set(ContextIsStaff, claims.IsStaff)
}
