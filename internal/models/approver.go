package models

import (
	"time"

	"github.com/lib/pq"
)

type Decision string

const (
	DecisionNone     Decision = ""
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

func (d Decision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

type ApproverOrigin string

const (
	OriginStanding   ApproverOrigin = "standing"
	OriginAdHoc      ApproverOrigin = "ad_hoc"
	OriginEscalation ApproverOrigin = "escalation"
)

// Approver – a vote slot. Standing slots carry ActionTypeID only, request slots carry RequestID.
type Approver struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)"`
	ActionTypeID *string        `gorm:"type:varchar(100);index"`
	RequestID    *string        `gorm:"type:varchar(36);index;uniqueIndex:idx_request_user"`
	UserID       string         `gorm:"uniqueIndex:idx_request_user"`
	Profile      string         `gorm:"type:varchar(100)"`
	Origin       ApproverOrigin `gorm:"type:varchar(20);not null"`

	Decision      Decision `gorm:"type:varchar(20);not null;default:''"`
	Justification string   `gorm:"type:text"`
	DecidedAt     *time.Time
	DecisionSeq   int64 `gorm:"not null;default:0"`
	Attachments   pq.StringArray `gorm:"type:text[]"`
	Active        bool           `gorm:"type:boolean;not null"`
	Late          bool           `gorm:"type:boolean;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Approver) TableName() string {
	return "aprovadores"
}

func (a *Approver) Decided() bool {
	return a.Decision != DecisionNone
}
