// Package httpapi is the JSON HTTP surface of the auth service, built on gin.
package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/eventplanner/internal/common"
	"github.com/dmitrijs2005/eventplanner/internal/logging"
	"github.com/dmitrijs2005/eventplanner/internal/server/ratelimit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig holds transport settings.
type RouterConfig struct {
	AllowedOrigins []string
	SecureCookies  bool
}

// NewRouter builds the gin engine with middleware and all routes under
// common.APIPrefix.
func NewRouter(svc AuthService, verifier TokenVerifier, limiter ratelimit.Limiter, log logging.Logger, cfg RouterConfig) *gin.Engine {
	useJSONFieldNames()

	log = log.With("module", "http")

	router := gin.New()
	router.Use(RequestID())
	router.Use(Recovery(log))
	router.Use(AccessLog(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", common.AuthorizationHeaderName, requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.NoRoute(func(c *gin.Context) {
		abort(c, http.StatusNotFound, msgNotFound, nil)
	})
	router.GET("/health", func(c *gin.Context) {
		respond(c, http.StatusOK, "ok", nil)
	})

	h := NewHandler(svc, log, cfg.SecureCookies)
	throttle := RateLimit(limiter, log)
	protected := RequireAuth(verifier, log)

	api := router.Group(common.APIPrefix)
	{
		api.POST("/registerAccount", throttle, h.Register)
		api.POST("/verifyEmail", throttle, h.VerifyEmail)
		api.POST("/generate2FA", throttle, h.Generate2FA)
		api.POST("/loginWith2FA", throttle, h.LoginWith2FA)
		api.POST("/refresh", throttle, h.Refresh)

		api.GET("/logout", protected, h.Logout)
		api.GET("/me", protected, h.Me)
	}

	return router
}
