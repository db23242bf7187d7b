package models

import (
	"time"
)

// SentMessage is one archived dispatch outcome, one row per recipient.
// The archive feeds the local reports view; the authoritative history
// lives behind the remote backend.
type SentMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Recipient string    `gorm:"index;type:varchar(50)" json:"recipient"`
	Content   string    `gorm:"type:text" json:"content"`
	Kind      string    `gorm:"type:varchar(20)" json:"kind"`
	Status    string    `gorm:"type:varchar(20)" json:"status"`
	Detail    string    `gorm:"type:text" json:"detail"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (SentMessage) TableName() string {
	return "sent_messages"
}

const (
	KindText     = "text"
	KindImage    = "image"
	KindDocument = "document"
	KindTemplate = "template"

	StatusSent      = "sent"
	StatusScheduled = "scheduled"
	StatusFailed    = "failed"
)
