package models

import (
	"time"

	"github.com/lib/pq"
)

type ReminderKind string

const (
	KindReminder   ReminderKind = "reminder"
	KindEscalation ReminderKind = "escalation"
)

// ApprovalReminder – log row for every reminder or escalation fired by the sweep
type ApprovalReminder struct {
	ID         int            `gorm:"primaryKey"`
	RequestID  string         `gorm:"type:varchar(36);not null;index"`
	Kind       ReminderKind   `gorm:"type:varchar(20);not null"`
	Recipients pq.StringArray `gorm:"type:text[]"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;not null"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
}

func (ApprovalReminder) TableName() string {
	return "lembretes_aprovacao"
}
