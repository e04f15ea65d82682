package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ai-persona-chat/backend/internal/models"
	apperrors "ai-persona-chat/backend/pkg/errors"
)

// ListPersonas handles GET /api/personas. ?public=true narrows to shared
// personas, ?userId= to one owner.
func (h *Handler) ListPersonas(c *gin.Context) {
	filter := models.PersonaFilter{
		PublicOnly: c.Query("public") == "true",
		UserID:     c.Query("userId"),
	}
	personas, err := h.Personas.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"personas": personas})
}

// CreatePersona handles POST /api/personas.
func (h *Handler) CreatePersona(c *gin.Context) {
	var req models.CreatePersonaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}

	persona, err := h.Personas.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, persona)
}

// GetPersona handles GET /api/personas/:id.
func (h *Handler) GetPersona(c *gin.Context) {
	persona, err := h.Personas.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, persona)
}

// UpdatePersona handles PATCH /api/personas/:id.
func (h *Handler) UpdatePersona(c *gin.Context) {
	var req models.UpdatePersonaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}

	persona, err := h.Personas.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, persona)
}

// DeletePersona handles DELETE /api/personas/:id.
func (h *Handler) DeletePersona(c *gin.Context) {
	if err := h.Personas.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListVersions handles GET /api/personas/:id/versions, newest first.
func (h *Handler) ListVersions(c *gin.Context) {
	versions, err := h.Personas.ListVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

// RestoreVersion handles POST /api/personas/:id/versions/:version/restore.
func (h *Handler) RestoreVersion(c *gin.Context) {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		fail(c, apperrors.NewValidationError("version must be a positive integer"))
		return
	}

	persona, err := h.Personas.Restore(c.Request.Context(), c.Param("id"), version)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, persona)
}

// DiffVersions handles GET /api/personas/:id/diff?from=1&to=2.
func (h *Handler) DiffVersions(c *gin.Context) {
	from, err := strconv.Atoi(c.Query("from"))
	if err != nil {
		fail(c, apperrors.NewValidationError("from must be an integer"))
		return
	}
	to, err := strconv.Atoi(c.Query("to"))
	if err != nil {
		fail(c, apperrors.NewValidationError("to must be an integer"))
		return
	}

	diffs, err := h.Personas.DiffVersions(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"diffs": diffs})
}

// Preview handles POST /api/personas/preview: generate against an unsaved
// configuration, persisting nothing.
func (h *Handler) Preview(c *gin.Context) {
	var req models.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.NewValidationError("invalid request body").WithDetails(err.Error()))
		return
	}

	resp, err := h.Orchestrator.Preview(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
