package repositories

import (
	"errors"

	"critical-approve/pkg/approvalErrors"
	"gorm.io/gorm"
)

// Repository – gorm backed Store
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return approvalErrors.ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return approvalErrors.ErrConflict
	}
	return err
}

var _ Store = (*Repository)(nil)
