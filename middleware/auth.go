package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/arenaforge/gameapi/access"
	"github.com/arenaforge/gameapi/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const CurrentUserKey = "current_user"

// Authenticated resolves the bearer token and requires an active account.
func Authenticated(chain *access.Chain, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := chain.Authenticate(c.Request.Context(), bearerToken(c))
		if err != nil {
			abortGuard(c, log, err)
			return
		}
		c.Set(CurrentUserKey, u)
		c.Next()
	}
}

// RequireRoles resolves the bearer token, requires an active account and a
// role in allowed.
func RequireRoles(chain *access.Chain, allowed access.RoleSet, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := chain.Authorize(c.Request.Context(), bearerToken(c), allowed)
		if err != nil {
			abortGuard(c, log, err)
			return
		}
		c.Set(CurrentUserKey, u)
		c.Next()
	}
}

// CurrentUser returns the user stored by a guard, or nil.
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(CurrentUserKey); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}

// CurrentUserID returns the guarded user's id, or 0.
func CurrentUserID(c *gin.Context) int64 {
	if u := CurrentUser(c); u != nil {
		return u.ID
	}
	return 0
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func abortGuard(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, access.ErrUnauthenticated):
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, access.ErrBlocked):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account is blocked"})
	case errors.Is(err, access.ErrInsufficientRole):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	default:
		log.Error("auth guard failed", zap.Error(err), zap.String("trace_id", GetTraceID(c)))
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	}
}
