package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/classconnect-api/internal/service"
	appErrors "github.com/noah-isme/classconnect-api/pkg/errors"
	"github.com/noah-isme/classconnect-api/pkg/logger"
	"github.com/noah-isme/classconnect-api/pkg/response"
)

const (
	// ContextSessionKey holds the restored *service.SessionHolder.
	ContextSessionKey = "session_holder"

	clientKeyName = "client_key"
)

// CookieSessions installs the signed cookie session that carries the client key.
func CookieSessions(name, secret string, ttl time.Duration, secure bool) gin.HandlerFunc {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(name, store)
}

// ClientKey ensures every browser has a stable client key and binds it to
// the request context. Requires CookieSessions.
func ClientKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		key, _ := sess.Get(clientKeyName).(string)
		if key == "" {
			key = uuid.NewString()
			sess.Set(clientKeyName, key)
			if err := sess.Save(); err != nil {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start session"))
				c.Abort()
				return
			}
		}
		c.Set(logger.ClientKeyField, key)
		c.Request = c.Request.WithContext(service.WithClientKey(c.Request.Context(), key))
		c.Next()
	}
}

// Session restores the client's role and user from durable storage.
func Session(svc *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		holder, err := svc.Restore(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextSessionKey, holder)
		c.Next()
	}
}

// HolderFrom returns the session holder restored for this request.
func HolderFrom(c *gin.Context) *service.SessionHolder {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	holder, _ := value.(*service.SessionHolder)
	return holder
}
