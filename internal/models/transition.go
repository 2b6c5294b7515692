package models

import (
	"time"

	"gorm.io/datatypes"
)

const SystemActor = "system"

// Tally – vote counts at the moment a transition was resolved
type Tally struct {
	Strategy   Strategy `json:"strategy"`
	Quorum     int      `json:"quorum"`
	Approvals  int      `json:"approvals"`
	Rejections int      `json:"rejections"`
	Undecided  int      `json:"undecided"`
}

// StatusTransition – audit replay record written together with every status change
type StatusTransition struct {
	ID         uint          `gorm:"primaryKey"`
	RequestID  string        `gorm:"type:varchar(36);not null;index"`
	FromStatus RequestStatus `gorm:"type:varchar(32);not null"`
	ToStatus   RequestStatus `gorm:"type:varchar(32);not null"`
	Actor      string        `gorm:"not null"`
	Reason     string        `gorm:"type:text"`
	Tally      datatypes.JSONType[Tally]
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (StatusTransition) TableName() string {
	return "transicoes_aprovacao"
}
