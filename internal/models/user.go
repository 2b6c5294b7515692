package models

import (
	"time"

	"github.com/lib/pq"
)

// User – directory entry used to expand role-bound approver assignments
type User struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	Email     string
	Profiles  pq.StringArray `gorm:"type:text[]"`
	Active    bool           `gorm:"type:boolean;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "usuarios"
}

// Requester – identity snapshot supplied by the authenticated caller
type Requester struct {
	ID       string
	Name     string
	Email    string
	Profiles []string
}

// Actor – authenticated caller of an operation on an existing request
type Actor struct {
	ID      string
	IsAdmin bool
}
