package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/taskboard-web/internal/constants"
	apierrors "github.com/yukikurage/taskboard-web/internal/errors"
	"github.com/yukikurage/taskboard-web/internal/logger"
	"github.com/yukikurage/taskboard-web/internal/session"
)

// LoadSession decodes the bearer token kept in the session cookie and stores
// the resulting session in the context. A token that cannot be decoded is
// dropped from the cookie.
func LoadSession(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := sessions.Default(c)
		sess := session.Anonymous()

		if token, _ := store.Get(constants.SessionKeyToken).(string); token != "" {
			decoded, err := session.FromToken(token)
			if err != nil {
				logger.WithRequestID(c.Request.Context(), log).Info("dropping malformed session token", zap.Error(err))
				store.Delete(constants.SessionKeyToken)
				_ = store.Save()
			} else {
				sess = decoded
			}
		}

		c.Set(constants.ContextKeySession, sess)
		c.Next()
	}
}

// RequireAuth rejects requests without an authenticated session.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetSession(c).Authenticated() {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests whose session user is not an administrator.
// It must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetSession(c).IsAdmin() {
			apierrors.Forbidden(c, "Access denied. Admin only.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetSession retrieves the current session from context
func GetSession(c *gin.Context) *session.Session {
	v, exists := c.Get(constants.ContextKeySession)
	if !exists {
		return session.Anonymous()
	}
	sess, ok := v.(*session.Session)
	if !ok || sess == nil {
		return session.Anonymous()
	}
	return sess
}
