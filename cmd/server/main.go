package main

import (
	"log"

	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/api"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/config"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/contacts"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/database"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/dispatch"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/sender"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/sendlog"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/settings"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/uploader"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.Init(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	r := gin.Default()

	// CORS Middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	senderClient := sender.NewClient(cfg)
	uploadClient := uploader.NewClient(cfg.ImageUploadURL, cfg.ImageUploadKey)
	contactStore := contacts.NewStore(senderClient)
	if err := contactStore.Load(); err != nil {
		log.Printf("Warning: failed to load contacts from backend: %v", err)
	}

	sendingLog := sendlog.New()
	settingsStore := settings.NewStore()

	hub := ws.NewHub()
	go hub.Run()
	sendingLog.SetNotifier(hub.NotifyLog)

	dispatcher := dispatch.New(senderClient, sendingLog, settingsStore, &database.Archive{DB: db})

	contactHandler := api.NewContactHandler(contactStore)
	composeHandler := api.NewComposeHandler(dispatcher, uploadClient, contactStore)
	logHandler := api.NewLogHandler(sendingLog)
	settingsHandler := api.NewSettingsHandler(settingsStore)
	remoteHandler := api.NewRemoteHandler(senderClient)
	messagesHandler := api.NewMessagesHandler(db)

	apiGroup := r.Group("/api")
	{
		// Contact Routes
		apiGroup.GET("/contacts", contactHandler.GetContacts)
		apiGroup.POST("/contacts", contactHandler.CreateContact)
		apiGroup.POST("/contacts/reload", contactHandler.ReloadContacts)
		apiGroup.PUT("/contacts/:number", contactHandler.UpdateContact)
		apiGroup.POST("/contacts/delete", contactHandler.DeleteContacts)
		apiGroup.POST("/contacts/import", contactHandler.ImportContacts)
		apiGroup.GET("/contacts/export", contactHandler.ExportContacts)

		// Compose Routes
		apiGroup.GET("/draft", composeHandler.GetDraft)
		apiGroup.PUT("/draft", composeHandler.UpdateDraft)
		apiGroup.POST("/draft/attachments", composeHandler.AddAttachment)
		apiGroup.PUT("/draft/attachments/selection", composeHandler.SetSelection)
		apiGroup.PUT("/draft/attachments/:id", composeHandler.UpdateAttachment)
		apiGroup.POST("/draft/attachments/delete", composeHandler.DeleteAttachments)
		apiGroup.POST("/send", composeHandler.Send)
		apiGroup.POST("/send/template", composeHandler.SendTemplate)

		// Log Routes
		apiGroup.GET("/logs", logHandler.GetLogs)
		apiGroup.DELETE("/logs", logHandler.ClearLogs)
		apiGroup.GET("/logs/summary", logHandler.GetSummary)

		// Settings Routes
		apiGroup.GET("/settings", settingsHandler.GetSettings)
		apiGroup.PUT("/settings", settingsHandler.UpdateSettings)
		apiGroup.POST("/settings/reset", settingsHandler.ResetSettings)

		// Remote History Routes
		apiGroup.GET("/history", remoteHandler.GetHistory)
		apiGroup.GET("/history/contact", remoteHandler.GetContactHistory)
		apiGroup.GET("/scheduled", remoteHandler.GetScheduledMessages)
		apiGroup.PUT("/scheduled/:id", remoteHandler.UpdateScheduledMessage)
		apiGroup.POST("/scheduled/:id/cancel", remoteHandler.CancelScheduledMessage)

		// Local Archive Routes
		apiGroup.GET("/messages", messagesHandler.GetMessages)
	}

	r.GET("/ws", func(c *gin.Context) {
		hub.ServeWs(c.Writer, c.Request)
	})

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
