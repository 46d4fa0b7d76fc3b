package api

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/services"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// AuthMiddleware resolves the bearer token into an Identity stored on the
// gin context. Requests without a valid one never reach a handler.
func AuthMiddleware(identities services.IIdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authorization := c.GetHeader("Authorization")
		if authorization == "" {
			abortWithError(c, errors.ErrUnauthenticated)
			return
		}
		identity, err := identities.Authenticate(c.Request.Context(), authorization)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

func identityOf(c *gin.Context) domain.Identity {
	return c.MustGet(identityKey).(domain.Identity)
}

// RequestLogger logs one line per request with the errors attached to it.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}
		if c.Writer.Status() >= 500 {
			log.Error("Request failed", attrs...)
			return
		}
		log.Debug("Request served", attrs...)
	}
}
