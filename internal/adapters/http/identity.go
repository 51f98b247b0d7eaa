package http

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/adapters/auth"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

const (
	userIDKey        = "user_id"
	sessionUserIDKey = "user_id"
)

type IdentityOptions struct {
	Verifier   *auth.Verifier
	CookieName string
	AllowQuery bool
}

// IdentityMiddleware resolves the caller from the token cookie or the bearer
// header. A presented token that fails verification is rejected outright.
// In dev query mode the userId query parameter is accepted and remembered in
// the session. A session never stands in for a token.
func IdentityMiddleware(opts IdentityOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := tokenFrom(c, opts.CookieName); raw != "" && opts.Verifier != nil {
			uid, err := opts.Verifier.Verify(raw)
			if err != nil {
				log.Warn().Err(err).Str("module", "auth").Msg("token rejected")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
				return
			}
			c.Set(userIDKey, string(uid))
			c.Next()
			return
		}

		if opts.AllowQuery {
			session := sessions.Default(c)
			if uid, err := domain.ParseUserID(c.Query("userId")); err == nil {
				if session.Get(sessionUserIDKey) != string(uid) {
					session.Set(sessionUserIDKey, string(uid))
					if err := session.Save(); err != nil {
						log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
					}
				}
				c.Set(userIDKey, string(uid))
			} else if s, ok := session.Get(sessionUserIDKey).(string); ok && s != "" {
				c.Set(userIDKey, s)
			}
		}
		c.Next()
	}
}

// RequireIdentity answers 401 when no identity was resolved.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(userIDKey) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		c.Next()
	}
}

func tokenFrom(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil && v != "" {
			return v
		}
	}
	h := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
