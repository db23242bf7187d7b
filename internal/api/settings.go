package api

import (
	"net/http"

	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/settings"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	Store *settings.Store
}

func NewSettingsHandler(store *settings.Store) *SettingsHandler {
	return &SettingsHandler{Store: store}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Get())
}

func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var patch settings.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.Store.Update(patch)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *SettingsHandler) ResetSettings(c *gin.Context) {
	h.Store.Reset(settings.Settings{})
	c.JSON(http.StatusOK, h.Store.Get())
}
