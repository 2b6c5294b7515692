package models

import (
	"time"

	"github.com/lib/pq"
)

// ApprovalRequest – one gated operation waiting for (or having received) a decision
type ApprovalRequest struct {
	ID           string      `gorm:"primaryKey;type:varchar(36)"`
	Code         string      `gorm:"type:varchar(40);uniqueIndex;not null"`
	ActionTypeID string      `gorm:"type:varchar(100);not null;index"`
	ActionType   *ActionType `gorm:"foreignKey:ActionTypeID"`

	RequesterID       string `gorm:"not null;index"`
	RequesterName     string
	RequesterEmail    string
	RequesterProfiles pq.StringArray `gorm:"type:text[]"`

	Justification   string        `gorm:"type:text;not null"`
	ActionPayload   []byte        `gorm:"type:bytea"`
	ExecutionMethod string        `gorm:"type:varchar(100);not null"`
	Status          RequestStatus `gorm:"type:varchar(32);not null;index"`
	Deadline        *time.Time    `gorm:"index"`

	ReminderCount   int
	LastReminderAt  *time.Time
	EscalationCount int
	LastEscalatedAt *time.Time

	Attachments   pq.StringArray `gorm:"type:text[]"`
	InternalNotes string         `gorm:"type:text"`

	// VoteSeq – bumped by every vote committed while pending; gives votes their commit order
	VoteSeq int64 `gorm:"not null;default:0"`
	// ResolvedSeq – last vote counted by the transition out of pending; later votes are late
	ResolvedSeq int64  `gorm:"not null;default:0"`
	Resolution  string `gorm:"type:varchar(32)"`

	ResolvedAt      *time.Time
	ExecutedAt      *time.Time
	ExecutionError  string `gorm:"type:text"`
	ExecutionResult []byte `gorm:"type:bytea"`

	Version   int64     `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ApprovalRequest) TableName() string {
	return "solicitacoes_aprovacao"
}

type RequestStatus string

// Reasons of the transition out of pending, kept on the request as its resolution
const (
	ResolutionDecision     = "decision"
	ResolutionAutoApproval = "auto_approval"
	ResolutionExpired      = "expired"
	ResolutionCancelled    = "cancelled"
)

const (
	StatusPending        RequestStatus = "pending"
	StatusApproved       RequestStatus = "approved"
	StatusRejected       RequestStatus = "rejected"
	StatusCancelled      RequestStatus = "cancelled"
	StatusExecuted       RequestStatus = "executed"
	StatusExecutionError RequestStatus = "execution_error"
)

var transitions = map[RequestStatus][]RequestStatus{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusExecuted, StatusExecutionError},
}

// CanTransition – reports whether from -> to is an edge of the request state machine
func CanTransition(from, to RequestStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal – no vote can change the request anymore
func (s RequestStatus) Terminal() bool {
	return s != StatusPending
}

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusExecuted, StatusExecutionError:
		return true
	}
	return false
}
