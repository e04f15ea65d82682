// Package router assembles the gin engine: middleware chain, API routes, the
// websocket endpoint and the operational surface (health, metrics, debug
// logs).
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ai-persona-chat/backend/internal/api"
	"ai-persona-chat/backend/internal/ws"
	apperrors "ai-persona-chat/backend/pkg/errors"
	"ai-persona-chat/backend/pkg/logger"
	"ai-persona-chat/backend/pkg/middleware"
	"ai-persona-chat/backend/pkg/validator"
)

// Options carries everything the router needs. Validator, ChatStream and
// MetricsHandler are optional.
type Options struct {
	Handler        *api.Handler
	ChatStream     *ws.ChatStream
	Validator      *validator.Validator
	Log            *logger.Logger
	AllowedOrigins []string
	ThrottleRPS    float64
	ThrottleBurst  int
	MaxBodySize    int64
	TrustedProxies []string
	MetricsHandler http.Handler
	// DebugRoutes exposes /debug/logs; off in production.
	DebugRoutes bool
}

// New builds the engine.
func New(opts Options) *gin.Engine {
	engine := gin.New()
	if opts.Log == nil {
		opts.Log = logger.GetGlobal()
	}
	if len(opts.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(opts.TrustedProxies)
	}

	engine.Use(apperrors.RecoveryWithLogger())
	engine.Use(logger.Middleware(opts.Log))
	engine.Use(apperrors.ErrorHandler())
	engine.Use(middleware.CORS(opts.AllowedOrigins))
	if opts.ThrottleRPS > 0 {
		engine.Use(middleware.Throttle(opts.ThrottleRPS, opts.ThrottleBurst))
	}
	if opts.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.MaxBodySize))
	}
	if opts.Validator != nil {
		engine.Use(opts.Validator.Middleware())
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.MetricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	} else {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	h := opts.Handler
	apiGroup := engine.Group("/api")
	{
		apiGroup.POST("/chat", h.Chat)
		apiGroup.POST("/reactions", h.React)

		personas := apiGroup.Group("/personas")
		{
			personas.GET("", h.ListPersonas)
			personas.POST("", h.CreatePersona)
			personas.POST("/preview", h.Preview)
			personas.GET("/:id", h.GetPersona)
			personas.PATCH("/:id", h.UpdatePersona)
			personas.DELETE("/:id", h.DeletePersona)
			personas.GET("/:id/versions", h.ListVersions)
			personas.POST("/:id/versions/:version/restore", h.RestoreVersion)
			personas.GET("/:id/diff", h.DiffVersions)
		}

		sessions := apiGroup.Group("/sessions")
		{
			sessions.GET("", h.ListSessions)
			sessions.POST("", h.CreateSession)
			sessions.GET("/:id", h.GetSession)
			sessions.PATCH("/:id", h.RenameSession)
			sessions.DELETE("/:id", h.DeleteSession)
			sessions.GET("/:id/messages", h.ListMessages)
		}
	}

	if opts.ChatStream != nil {
		engine.GET("/ws/chat", opts.ChatStream.Handle)
	}

	if opts.DebugRoutes {
		engine.GET("/debug/logs", h.DebugLogs)
		engine.DELETE("/debug/logs", h.ClearDebugLogs)
	}

	return engine
}
