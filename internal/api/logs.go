package api

import (
	"net/http"

	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/sendlog"

	"github.com/gin-gonic/gin"
)

type LogHandler struct {
	Log *sendlog.Log
}

func NewLogHandler(log *sendlog.Log) *LogHandler {
	return &LogHandler{Log: log}
}

func (h *LogHandler) GetLogs(c *gin.Context) {
	c.JSON(http.StatusOK, h.Log.Entries())
}

func (h *LogHandler) ClearLogs(c *gin.Context) {
	h.Log.Clear()
	c.JSON(http.StatusOK, gin.H{"status": "Logs cleared"})
}

// GetSummary feeds the "messages sent today" counter.
func (h *LogHandler) GetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"successfulSends": h.Log.SuccessfulSends()})
}
