package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "ai-persona-chat/backend/pkg/errors"
)

type createSessionRequest struct {
	PersonaID string `json:"personaId" binding:"required"`
	Title     string `json:"title"`
}

type renameSessionRequest struct {
	Title string `json:"title" binding:"required"`
}

// ListSessions handles GET /api/sessions?personaId=.
func (h *Handler) ListSessions(c *gin.Context) {
	summaries, err := h.Sessions.List(c.Request.Context(), c.Query("personaId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": summaries})
}

// CreateSession handles POST /api/sessions.
func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}

	sess, err := h.Sessions.Create(c.Request.Context(), req.PersonaID, req.Title)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// GetSession handles GET /api/sessions/:id.
func (h *Handler) GetSession(c *gin.Context) {
	sess, err := h.Sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// RenameSession handles PATCH /api/sessions/:id.
func (h *Handler) RenameSession(c *gin.Context) {
	var req renameSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}

	sess, err := h.Sessions.Rename(c.Request.Context(), c.Param("id"), req.Title)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// DeleteSession handles DELETE /api/sessions/:id.
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.Sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMessages handles GET /api/sessions/:id/messages, oldest first.
func (h *Handler) ListMessages(c *gin.Context) {
	messages, err := h.Sessions.Messages(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
