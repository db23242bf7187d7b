package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/contacts"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/dispatch"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/sender"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/uploader"

	"github.com/gin-gonic/gin"
)

// ComposeHandler exposes the draft state and the send operations.
type ComposeHandler struct {
	Dispatcher *dispatch.Dispatcher
	Uploader   *uploader.Client
	Contacts   *contacts.Store
}

func NewComposeHandler(d *dispatch.Dispatcher, up *uploader.Client, store *contacts.Store) *ComposeHandler {
	return &ComposeHandler{Dispatcher: d, Uploader: up, Contacts: store}
}

func (h *ComposeHandler) GetDraft(c *gin.Context) {
	c.JSON(http.StatusOK, h.Dispatcher.Draft())
}

type updateDraftRequest struct {
	Message       *string `json:"message"`
	IsTurboMode   *bool   `json:"isTurboMode"`
	IsScheduled   *bool   `json:"isScheduled"`
	ScheduledTime *string `json:"scheduledTime"`
}

func (h *ComposeHandler) UpdateDraft(c *gin.Context) {
	var req updateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Message != nil {
		h.Dispatcher.SetMessage(*req.Message)
	}
	if req.IsTurboMode != nil {
		h.Dispatcher.SetTurboMode(*req.IsTurboMode)
	}
	if req.IsScheduled != nil {
		scheduledTime := h.Dispatcher.Draft().ScheduledTime
		if req.ScheduledTime != nil {
			scheduledTime = *req.ScheduledTime
		}
		h.Dispatcher.SetSchedule(*req.IsScheduled, scheduledTime)
	} else if req.ScheduledTime != nil {
		h.Dispatcher.SetSchedule(h.Dispatcher.Draft().Scheduled, *req.ScheduledTime)
	}

	c.JSON(http.StatusOK, h.Dispatcher.Draft())
}

// AddAttachment accepts a multipart file; images are pushed through the
// image host so the attachment carries a public URL, documents must
// already be hosted and carry their URL in the "url" field.
func (h *ComposeHandler) AddAttachment(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	caption := c.PostForm("caption")
	kind := sender.AttachmentDocument
	url := c.PostForm("url")

	contentType := header.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "image/") {
		kind = sender.AttachmentImage
		data, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		uploaded, err := h.Uploader.Upload(header.Filename, data)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		url = uploaded
	}

	att := h.Dispatcher.AddAttachment(header.Filename, kind, caption, url)
	c.JSON(http.StatusCreated, att)
}

type updateAttachmentRequest struct {
	Name    string `json:"name"`
	Caption string `json:"caption"`
}

func (h *ComposeHandler) UpdateAttachment(c *gin.Context) {
	id, err := strconv.ParseFloat(c.Param("id"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attachment id"})
		return
	}

	var req updateAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Dispatcher.UpdateAttachment(id, req.Name, req.Caption); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Attachment updated"})
}

type deleteAttachmentsRequest struct {
	IDs []float64 `json:"ids" binding:"required"`
}

func (h *ComposeHandler) DeleteAttachments(c *gin.Context) {
	var req deleteAttachmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	removed := h.Dispatcher.RemoveAttachments(req.IDs)
	c.JSON(http.StatusOK, gin.H{"status": "Attachments deleted", "count": removed})
}

type selectionRequest struct {
	IDs []float64 `json:"ids"`
}

func (h *ComposeHandler) SetSelection(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.Dispatcher.SetSelection(req.IDs)
	c.JSON(http.StatusOK, h.Dispatcher.Draft())
}

type sendRequest struct {
	Recipients []string `json:"recipients" binding:"required"`
}

// Send dispatches the current draft to the selected recipients.
func (h *ComposeHandler) Send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.Dispatcher.Send(h.resolve(req.Recipients))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, dispatch.ErrSendInProgress) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Message sent"})
}

type sendTemplateRequest struct {
	Recipients []string        `json:"recipients" binding:"required"`
	Template   sender.Template `json:"template"`
}

func (h *ComposeHandler) SendTemplate(c *gin.Context) {
	var req sendTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Dispatcher.SendTemplate(h.resolve(req.Recipients), req.Template); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Template sent"})
}

// resolve maps requested numbers to mirrored contacts so personalization
// has names to work with; unknown numbers still get a bare contact.
func (h *ComposeHandler) resolve(numbers []string) []contacts.Contact {
	out := make([]contacts.Contact, 0, len(numbers))
	for _, n := range numbers {
		if contact, ok := h.Contacts.Get(n); ok {
			out = append(out, contact)
			continue
		}
		out = append(out, contacts.Contact{PhoneNumber: n})
	}
	return out
}
