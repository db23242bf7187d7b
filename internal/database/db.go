package database

import (
	"fmt"
	"log"

	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/config"
	"github.com/xMahdiRz/WhatsApp-Bulk-Sender/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Init opens the local archive database: postgres when DB_HOST is set,
// otherwise an sqlite file next to the binary.
func Init(cfg *config.Config) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	if cfg.DBHost != "" {
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	} else {
		db, err = gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.SentMessage{}); err != nil {
		return nil, fmt.Errorf("failed to run auto-migration: %w", err)
	}

	log.Println("Database initialized successfully (sent_messages)")
	return db, nil
}

// Archive records dispatch outcomes. Writes are best-effort: a failed
// insert is logged, never surfaced into the sending workflow.
type Archive struct {
	DB *gorm.DB
}

func (a *Archive) Record(recipient, content, kind, status, detail string) {
	if a == nil || a.DB == nil {
		return
	}
	row := models.SentMessage{
		Recipient: recipient,
		Content:   content,
		Kind:      kind,
		Status:    status,
		Detail:    detail,
	}
	if err := a.DB.Create(&row).Error; err != nil {
		log.Printf("Error archiving message for %s: %v", recipient, err)
	}
}
