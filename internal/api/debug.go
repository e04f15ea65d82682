package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DebugLogs handles GET /debug/logs: the most recent log entries from the
// in-process ring sink, oldest first.
func (h *Handler) DebugLogs(c *gin.Context) {
	if h.LogSink == nil {
		c.JSON(http.StatusOK, gin.H{"entries": []string{}, "count": 0})
		return
	}
	entries := h.LogSink.Entries()
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// ClearDebugLogs handles DELETE /debug/logs.
func (h *Handler) ClearDebugLogs(c *gin.Context) {
	if h.LogSink != nil {
		h.LogSink.Clear()
	}
	c.Status(http.StatusNoContent)
}
