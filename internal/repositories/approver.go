package repositories

import (
	"context"
	"fmt"

	"critical-approve/internal/models"
	"critical-approve/pkg/approvalErrors"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

func (r *Repository) ListRequestApprovers(ctx context.Context, requestID string) ([]models.Approver, error) {
	var approvers []models.Approver

	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).Order("created_at, id").Find(&approvers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch approvers: %w", err)
	}
	return approvers, nil
}

func (r *Repository) FindRequestApprover(ctx context.Context, requestID, userID string) (*models.Approver, error) {
	var approver models.Approver

	err := r.db.WithContext(ctx).Where("request_id = ? AND user_id = ?", requestID, userID).First(&approver).Error
	if err != nil {
		return nil, translate(err)
	}
	return &approver, nil
}

func (r *Repository) AddRequestApprover(ctx context.Context, a *models.Approver) error {
	return translate(r.db.WithContext(ctx).Create(a).Error)
}

// RecordDecision – writes the vote once; a second write on the same slot is a conflict.
// While the request is pending the vote takes the next request sequence and bumps its version,
// so a resolver that read the request earlier loses its compare-and-swap. Otherwise it is late.
func (r *Repository) RecordDecision(ctx context.Context, requestID, approverID string, d DecisionRecord) (*models.Approver, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ApprovalRequest{}).
			Where("id = ? AND status = ?", requestID, models.StatusPending).
			Updates(map[string]any{
				"vote_seq":   gorm.Expr("vote_seq + 1"),
				"version":    gorm.Expr("version + 1"),
				"updated_at": d.At,
			})
		if res.Error != nil {
			return res.Error
		}

		var seq int64
		late := res.RowsAffected == 0
		if !late {
			if err := tx.Model(&models.ApprovalRequest{}).Where("id = ?", requestID).Pluck("vote_seq", &seq).Error; err != nil {
				return err
			}
		}

		res = tx.Model(&models.Approver{}).
			Where("id = ? AND request_id = ? AND decision = ?", approverID, requestID, models.DecisionNone).
			Updates(map[string]any{
				"decision":      d.Decision,
				"justification": d.Justification,
				"attachments":   pq.StringArray(d.Attachments),
				"decided_at":    d.At,
				"decision_seq":  seq,
				"late":          late,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return approvalErrors.ErrConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var approver models.Approver
	if err := r.db.WithContext(ctx).Where("id = ?", approverID).First(&approver).Error; err != nil {
		return nil, translate(err)
	}
	return &approver, nil
}
