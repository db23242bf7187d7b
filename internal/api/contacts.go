package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/contacts"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	Store *contacts.Store
}

func NewContactHandler(store *contacts.Store) *ContactHandler {
	return &ContactHandler{Store: store}
}

func (h *ContactHandler) GetContacts(c *gin.Context) {
	list := h.Store.All()
	if list == nil {
		list = []contacts.Contact{}
	}
	c.JSON(http.StatusOK, list)
}

// ReloadContacts refetches the remote list into the mirror.
func (h *ContactHandler) ReloadContacts(c *gin.Context) {
	if err := h.Store.Load(); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Store.All())
}

func (h *ContactHandler) CreateContact(c *gin.Context) {
	var req contacts.Contact
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Store.Add(req); err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, contacts.ErrNameRequired) &&
			!errors.Is(err, contacts.ErrInvalidNumber) &&
			!errors.Is(err, contacts.ErrDuplicateNumber) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "Contact added", "phoneNumber": req.PhoneNumber})
}

type renameContactRequest struct {
	Name string `json:"name"`
}

func (h *ContactHandler) UpdateContact(c *gin.Context) {
	number := c.Param("number")
	var req renameContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Store.Rename(number, req.Name); err != nil {
		if errors.Is(err, contacts.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Contact updated"})
}

type deleteContactsRequest struct {
	PhoneNumbers []string `json:"phoneNumbers" binding:"required"`
}

// DeleteContacts removes the selected numbers; the backend has no delete
// endpoint, so the remaining set is submitted wholesale.
func (h *ContactHandler) DeleteContacts(c *gin.Context) {
	var req deleteContactsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Store.Delete(req.PhoneNumbers); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Contacts deleted", "count": len(req.PhoneNumbers)})
}

func (h *ContactHandler) ImportContacts(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "CSV file is required"})
		return
	}
	defer file.Close()

	report, err := h.Store.ImportCSV(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "report": report})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *ContactHandler) ExportContacts(c *gin.Context) {
	filename := fmt.Sprintf("contacts_%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Status(http.StatusOK)

	if err := h.Store.ExportCSV(c.Writer); err != nil {
		c.Error(err)
	}
}
