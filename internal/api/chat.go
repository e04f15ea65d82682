package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/internal/ratelimit"
	apperrors "ai-persona-chat/backend/pkg/errors"
)

// Chat handles POST /api/chat. The response is a server-sent event stream
// carrying one terminal result event followed by [DONE]; clients wanting
// incremental deltas use the websocket endpoint instead. Pipeline errors are
// rendered as plain JSON since nothing has been streamed yet.
func (h *Handler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}

	result, err := h.Orchestrator.Chat(c.Request.Context(), ratelimit.ClientKey(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		fail(c, apperrors.NewInternalServerError("encode result").WithCause(err))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	c.Writer.Write([]byte("data: "))
	c.Writer.Write(payload)
	c.Writer.Write([]byte("\n\ndata: [DONE]\n\n"))
	c.Writer.Flush()
}

// React handles POST /api/reactions: classify text and resolve its emoji.
func (h *Handler) React(c *gin.Context) {
	var req models.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}

	resp, err := h.Orchestrator.React(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
