package httpapi

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dmitrijs2005/eventplanner/internal/common"
	"github.com/dmitrijs2005/eventplanner/internal/logging"
	"github.com/dmitrijs2005/eventplanner/internal/server/auth"
	"github.com/dmitrijs2005/eventplanner/internal/server/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type ctxKey string

const userIDKey ctxKey = "userID"

// UserIDFromContext returns the authenticated user id placed by RequireAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	Verify(token string, kind auth.TokenKind) (*auth.TokenClaims, error)
}

// RequireAuth admits requests carrying a valid "Authorization: Bearer" access
// token and stores its subject in the request context. The user row is not
// re-read.
func RequireAuth(verifier TokenVerifier, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		scheme, token, ok := strings.Cut(c.GetHeader(common.AuthorizationHeaderName), " ")
		if !ok || !strings.EqualFold(scheme, common.BearerScheme) || strings.TrimSpace(token) == "" {
			log.Warn(ctx, "missing or malformed authorization header", "path", c.Request.URL.Path)
			abort(c, http.StatusUnauthorized, msgUnauthorized, nil)
			return
		}

		claims, err := verifier.Verify(strings.TrimSpace(token), auth.AccessToken)
		if err != nil {
			log.Warn(ctx, "rejected access token", "path", c.Request.URL.Path, "error", err)
			abort(c, http.StatusUnauthorized, msgUnauthorized, nil)
			return
		}

		c.Request = c.Request.WithContext(context.WithValue(ctx, userIDKey, claims.Subject))
		c.Next()
	}
}

// RequestID tags the request context with the incoming X-Request-ID, or a
// fresh uuid, and echoes it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// AccessLog logs one line per request.
func AccessLog(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info(c.Request.Context(), "request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// Recovery turns panics into the 500 envelope.
func Recovery(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(c.Request.Context(), "panic recovered",
					"error", r,
					"stack", string(debug.Stack()),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
				)
				abort(c, http.StatusInternalServerError, msgInternal, nil)
			}
		}()
		c.Next()
	}
}

// RateLimit throttles by route and client IP. Limiter failures let the
// request through.
func RateLimit(limiter ratelimit.Limiter, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.FullPath() + ":" + c.ClientIP()

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn(c.Request.Context(), "rate limiter unavailable", "key", key, "error", err)
		}
		if !allowed {
			log.Warn(c.Request.Context(), "rate limit exceeded", "key", key)
			abort(c, http.StatusTooManyRequests, msgTooMany, nil)
			return
		}
		c.Next()
	}
}
