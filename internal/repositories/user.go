package repositories

import (
	"context"
	"fmt"

	"critical-approve/internal/models"
	"gorm.io/gorm/clause"
)

func (r *Repository) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// SaveUser – creates or refreshes a directory entry
func (r *Repository) SaveUser(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "profiles", "active", "updated_at"}),
	}).Create(u).Error
}

// UsersWithProfile – active users carrying the given role tag
func (r *Repository) UsersWithProfile(ctx context.Context, profile string) ([]models.User, error) {
	var users []models.User

	err := r.db.WithContext(ctx).
		Where("active = ? AND ? = ANY(profiles)", true, profile).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find users with profile %s: %w", profile, err)
	}
	return users, nil
}
