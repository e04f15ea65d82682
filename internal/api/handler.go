// Package api implements the HTTP handlers. Handlers bind input, delegate to
// the service layer and push errors onto the gin context; rendering is the
// error middleware's job.
package api

import (
	"ai-persona-chat/backend/internal/service"
	"ai-persona-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	Personas     *service.PersonaService
	Sessions     *service.SessionService
	Orchestrator *service.ChatOrchestrator
	LogSink      *logger.RingSink
}

// fail records err for the error middleware and aborts the handler chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
