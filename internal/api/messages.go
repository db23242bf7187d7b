package api

import (
	"net/http"

	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MessagesHandler serves the local delivery archive for the reports view.
type MessagesHandler struct {
	DB *gorm.DB
}

func NewMessagesHandler(db *gorm.DB) *MessagesHandler {
	return &MessagesHandler{DB: db}
}

func (h *MessagesHandler) GetMessages(c *gin.Context) {
	if h.DB == nil {
		c.JSON(http.StatusOK, []models.SentMessage{})
		return
	}

	var messages []models.SentMessage
	query := h.DB.Order("created_at DESC")
	if recipient := c.Query("recipient"); recipient != "" {
		query = query.Where("recipient = ?", recipient)
	}
	if err := query.Limit(500).Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if messages == nil {
		messages = []models.SentMessage{}
	}
	c.JSON(http.StatusOK, messages)
}
