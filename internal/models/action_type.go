package models

import (
	"time"

	"github.com/lib/pq"
)

type Strategy string

const (
	StrategySimple   Strategy = "simple"
	StrategyMajority Strategy = "majority"
)

func (s Strategy) Valid() bool {
	return s == StrategySimple || s == StrategyMajority
}

type ActionTypeStatus string

const (
	ActionTypeActive   ActionTypeStatus = "active"
	ActionTypeInactive ActionTypeStatus = "inactive"
)

// ActionType – a registered category of critical action and its approval policy
type ActionType struct {
	ID                   string           `gorm:"primaryKey;type:varchar(100)"`
	Name                 string           `gorm:"not null"`
	Description          string           `gorm:"type:text"`
	Strategy             Strategy         `gorm:"type:varchar(20);not null"`
	MinApprovers         int              `gorm:"not null"`
	AllowSelfApproval    bool             `gorm:"type:boolean;not null"`
	AutoApprovalProfiles pq.StringArray   `gorm:"type:text[]"`
	Status               ActionTypeStatus `gorm:"type:varchar(20);not null;index"`

	EscalationApprovers pq.StringArray `gorm:"type:text[]"`
	Supervisors         pq.StringArray `gorm:"type:text[]"`
	MaxEscalations      int
	EscalationInterval  time.Duration

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ActionType) TableName() string {
	return "acoes_aprovacao"
}

func (a *ActionType) Active() bool {
	return a.Status == ActionTypeActive
}

// HasEscalationPolicy – true when an expired request can be escalated instead of rejected
func (a *ActionType) HasEscalationPolicy() bool {
	return a.MaxEscalations > 0 && (len(a.EscalationApprovers) > 0 || len(a.Supervisors) > 0)
}

// AutoApproves – true when one of the requester profiles bypasses voting
func (a *ActionType) AutoApproves(profiles []string) bool {
	for _, p := range profiles {
		for _, auto := range a.AutoApprovalProfiles {
			if p == auto {
				return true
			}
		}
	}
	return false
}
