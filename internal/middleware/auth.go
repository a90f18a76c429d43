// internal/middleware/auth.go
package middleware

import (
	"log/slog"
	"net/http"

	"networth-tracker/internal/auth"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey   = "user_id"
	identityKey = "identity"
)

type AuthMiddleware struct {
	tokenService  *auth.TokenService
	secureCookies bool
}

func NewAuthMiddleware(ts *auth.TokenService, secureCookies bool) *AuthMiddleware {
	return &AuthMiddleware{tokenService: ts, secureCookies: secureCookies}
}

// RequireAuth rejects requests without a valid session cookie.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie(auth.CookieName)
		if err != nil || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		id, err := m.tokenService.ParseToken(tokenStr)
		if err != nil {
			slog.Debug("session rejected", "error", err)
			http.SetCookie(c.Writer, auth.ClearedCookie(m.secureCookies))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}

		setIdentity(c, id)
		c.Next()
	}
}

// AttachUserIfPresent identifies the caller when it can and never blocks.
func (m *AuthMiddleware) AttachUserIfPresent() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie(auth.CookieName)
		if err == nil && tokenStr != "" {
			if id, err := m.tokenService.ParseToken(tokenStr); err == nil {
				setIdentity(c, id)
			} else {
				http.SetCookie(c.Writer, auth.ClearedCookie(m.secureCookies))
			}
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, id auth.Identity) {
	c.Set(userIDKey, id.ID)
	c.Set(identityKey, id)
}

// CurrentUser returns the identity established by the auth middleware.
func CurrentUser(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

// UserID returns the caller's id, or 0 when anonymous.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
