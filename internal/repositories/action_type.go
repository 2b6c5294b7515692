package repositories

import (
	"context"
	"fmt"

	"critical-approve/internal/models"
	"critical-approve/pkg/approvalErrors"
)

func (r *Repository) CreateActionType(ctx context.Context, at *models.ActionType) error {
	if err := r.db.WithContext(ctx).Create(at).Error; err != nil {
		return fmt.Errorf("create action type %s: %w", at.ID, translate(err))
	}
	return nil
}

func (r *Repository) GetActionType(ctx context.Context, id string) (*models.ActionType, error) {
	var at models.ActionType
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&at).Error; err != nil {
		return nil, translate(err)
	}
	return &at, nil
}

func (r *Repository) ListActionTypes(ctx context.Context, onlyActive bool) ([]models.ActionType, error) {
	var list []models.ActionType

	query := r.db.WithContext(ctx).Order("id")
	if onlyActive {
		query = query.Where("status = ?", models.ActionTypeActive)
	}
	if err := query.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list action types: %w", err)
	}
	return list, nil
}

func (r *Repository) SaveActionType(ctx context.Context, at *models.ActionType) error {
	res := r.db.WithContext(ctx).Model(&models.ActionType{}).Where("id = ?", at.ID).Updates(map[string]any{
		"name":                   at.Name,
		"description":            at.Description,
		"strategy":               at.Strategy,
		"min_approvers":          at.MinApprovers,
		"allow_self_approval":    at.AllowSelfApproval,
		"auto_approval_profiles": at.AutoApprovalProfiles,
		"escalation_approvers":   at.EscalationApprovers,
		"supervisors":            at.Supervisors,
		"max_escalations":        at.MaxEscalations,
		"escalation_interval":    at.EscalationInterval,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return approvalErrors.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) SetActionTypeStatus(ctx context.Context, id string, status models.ActionTypeStatus) error {
	res := r.db.WithContext(ctx).Model(&models.ActionType{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return approvalErrors.ErrRecordNotFound
	}
	return nil
}

// CountRequestsByActionType – how many requests (any status) reference the action type
func (r *Repository) CountRequestsByActionType(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ApprovalRequest{}).Where("action_type_id = ?", id).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) AddStandingApprover(ctx context.Context, a *models.Approver) error {
	return translate(r.db.WithContext(ctx).Create(a).Error)
}

// ListStandingApprovers – active standing assignments of an action type
func (r *Repository) ListStandingApprovers(ctx context.Context, actionTypeID string) ([]models.Approver, error) {
	var approvers []models.Approver

	err := r.db.WithContext(ctx).
		Where("action_type_id = ? AND request_id IS NULL AND active = ?", actionTypeID, true).
		Order("created_at, id").
		Find(&approvers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch standing approvers: %w", err)
	}
	return approvers, nil
}

func (r *Repository) SetApproverActive(ctx context.Context, approverID string, active bool) error {
	res := r.db.WithContext(ctx).Model(&models.Approver{}).Where("id = ?", approverID).Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return approvalErrors.ErrRecordNotFound
	}
	return nil
}
