package repositories

import (
	"context"
	"time"

	"critical-approve/internal/models"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ClaimReminder – marks the request as reminded unless it was already reminded inside the
// current window. Only the caller that gets true may send the reminder.
func (r *Repository) ClaimReminder(ctx context.Context, requestID string, windowStart, at time.Time, recipients []string) (bool, error) {
	claimed := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ApprovalRequest{}).
			Where("id = ? AND status = ? AND (last_reminder_at IS NULL OR last_reminder_at < ?)",
				requestID, models.StatusPending, windowStart).
			Updates(map[string]any{
				"reminder_count":   gorm.Expr("reminder_count + 1"),
				"last_reminder_at": at,
			})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		claimed = true

		return tx.Create(&models.ApprovalReminder{
			RequestID:  requestID,
			Kind:       models.KindReminder,
			Recipients: pq.StringArray(recipients),
			CreatedAt:  at,
		}).Error
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

// ClaimEscalation – increments the escalation counter if nobody else did since expectedCount was read
func (r *Repository) ClaimEscalation(ctx context.Context, requestID string, expectedCount int, at time.Time, recipients []string) (bool, error) {
	claimed := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ApprovalRequest{}).
			Where("id = ? AND status = ? AND escalation_count = ?", requestID, models.StatusPending, expectedCount).
			Updates(map[string]any{
				"escalation_count":  gorm.Expr("escalation_count + 1"),
				"last_escalated_at": at,
			})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		claimed = true

		return tx.Create(&models.ApprovalReminder{
			RequestID:  requestID,
			Kind:       models.KindEscalation,
			Recipients: pq.StringArray(recipients),
			CreatedAt:  at,
		}).Error
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

// RemindersByRequest – reminder and escalation history of a request
func (r *Repository) RemindersByRequest(ctx context.Context, requestID string) ([]models.ApprovalReminder, error) {
	var reminders []models.ApprovalReminder

	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).Order("created_at, id").Find(&reminders).Error
	if err != nil {
		return nil, err
	}
	return reminders, nil
}
