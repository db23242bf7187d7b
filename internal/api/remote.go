package api

import (
	"net/http"

	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/sender"

	"github.com/gin-gonic/gin"
)

// RemoteHandler passes history and scheduled-message queries straight
// through to the remote backend; the local service adds nothing but the
// bearer token.
type RemoteHandler struct {
	Client *sender.Client
}

func NewRemoteHandler(client *sender.Client) *RemoteHandler {
	return &RemoteHandler{Client: client}
}

func (h *RemoteHandler) GetHistory(c *gin.Context) {
	data, err := h.Client.History()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

func (h *RemoteHandler) GetContactHistory(c *gin.Context) {
	contact := c.Query("contact")
	if contact == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contact query parameter is required"})
		return
	}

	data, err := h.Client.ContactHistory(contact)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

func (h *RemoteHandler) GetScheduledMessages(c *gin.Context) {
	data, err := h.Client.ScheduledMessages()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

type updateScheduledRequest struct {
	DueDateUTC string `json:"dueDateUTC" binding:"required"`
}

func (h *RemoteHandler) UpdateScheduledMessage(c *gin.Context) {
	id := c.Param("id")
	var req updateScheduledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Client.UpdateScheduledMessage(id, req.DueDateUTC); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Scheduled message updated"})
}

func (h *RemoteHandler) CancelScheduledMessage(c *gin.Context) {
	id := c.Param("id")
	if err := h.Client.CancelScheduledMessage(id); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Scheduled message cancelled"})
}
