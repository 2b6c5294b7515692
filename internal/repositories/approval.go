package repositories

import (
	"context"
	"fmt"
	"time"

	"critical-approve/internal/models"
	"critical-approve/pkg/approvalErrors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateRequest – persists a new request together with its vote slots
func (r *Repository) CreateRequest(ctx context.Context, req *models.ApprovalRequest, slots []models.Approver) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(req).Error; err != nil {
			return fmt.Errorf("create request %s: %w", req.Code, translate(err))
		}
		if len(slots) == 0 {
			return nil
		}
		if err := tx.Create(&slots).Error; err != nil {
			return fmt.Errorf("create approvers for %s: %w", req.Code, translate(err))
		}
		return nil
	})
}

func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool

	err := r.db.WithContext(ctx).Raw(`
		SELECT EXISTS (
			SELECT 1
			FROM solicitacoes_aprovacao s
			WHERE s.code = ?
		) AS exists
	`, code).Scan(&exists).Error
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *Repository) GetRequest(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	var req models.ApprovalRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *Repository) GetRequestByCode(ctx context.Context, code string) (*models.ApprovalRequest, error) {
	var req models.ApprovalRequest
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&req).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *Repository) ListRequests(ctx context.Context, f RequestFilter) ([]models.ApprovalRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ApprovalRequest{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.RequesterID != "" {
		query = query.Where("requester_id = ?", f.RequesterID)
	}
	if f.ActionTypeID != "" {
		query = query.Where("action_type_id = ?", f.ActionTypeID)
	}
	if f.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		query = query.Where("created_at < ?", *f.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count requests: %w", err)
	}

	var list []models.ApprovalRequest
	err := query.Order("created_at DESC, id").Offset(f.Offset).Limit(f.Limit).Find(&list).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}
	return list, total, nil
}

// ListDueRequests – pending requests whose deadline falls before the given moment
func (r *Repository) ListDueRequests(ctx context.Context, before time.Time) ([]models.ApprovalRequest, error) {
	var list []models.ApprovalRequest

	err := r.db.WithContext(ctx).
		Where("status = ? AND deadline IS NOT NULL AND deadline <= ?", models.StatusPending, before).
		Order("deadline, id").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due requests: %w", err)
	}
	return list, nil
}

// TransitionStatus – moves the request to c.To only if it is still at c.Version/c.From.
// Returns ErrConflict when another writer got there first.
func (r *Repository) TransitionStatus(ctx context.Context, c StatusChange) (*models.ApprovalRequest, error) {
	if !models.CanTransition(c.From, c.To) {
		return nil, approvalErrors.ErrInvalidTransition
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ApprovalRequest{}).
			Where("id = ? AND version = ? AND status = ?", c.RequestID, c.Version, c.From).
			Updates(statusUpdates(c))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return approvalErrors.ErrConflict
		}

		if c.From == models.StatusPending {
			err := tx.Model(&models.Approver{}).
				Where("request_id = ? AND decision <> ? AND decision_seq > ?", c.RequestID, models.DecisionNone, c.ResolvedSeq).
				Update("late", true).Error
			if err != nil {
				return err
			}
		}

		return tx.Create(&models.StatusTransition{
			RequestID:  c.RequestID,
			FromStatus: c.From,
			ToStatus:   c.To,
			Actor:      c.Actor,
			Reason:     c.Reason,
			Tally:      datatypes.NewJSONType(c.Tally),
			CreatedAt:  c.At,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return r.GetRequest(ctx, c.RequestID)
}

func statusUpdates(c StatusChange) map[string]any {
	updates := map[string]any{
		"status":     c.To,
		"version":    gorm.Expr("version + 1"),
		"updated_at": c.At,
	}

	if c.From == models.StatusPending {
		updates["resolved_seq"] = c.ResolvedSeq
		updates["resolution"] = c.Reason
	}

	switch c.To {
	case models.StatusApproved, models.StatusRejected, models.StatusCancelled:
		updates["resolved_at"] = c.At
	case models.StatusExecuted:
		updates["executed_at"] = c.At
		updates["execution_result"] = c.ExecutionResult
	case models.StatusExecutionError:
		updates["executed_at"] = c.At
		updates["execution_error"] = c.ExecutionError
	}
	return updates
}

func (r *Repository) ListTransitions(ctx context.Context, requestID string) ([]models.StatusTransition, error) {
	var list []models.StatusTransition

	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).Order("id").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transitions: %w", err)
	}
	return list, nil
}
