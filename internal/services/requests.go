package services

import (
	"context"
	"errors"
	"fmt"

	"critical-approve/internal/models"
	"critical-approve/internal/notifier"
	"critical-approve/internal/repositories"
	"critical-approve/pkg/approvalErrors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Filter – listing criteria; results are always paginated
type Filter = repositories.RequestFilter

type Page struct {
	Items  []models.ApprovalRequest
	Total  int64
	Offset int
	Limit  int
}

func (s *Service) Get(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	return s.loadRequest(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*models.ApprovalRequest, error) {
	req, err := s.store.GetRequestByCode(ctx, code)
	if errors.Is(err, approvalErrors.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", approvalErrors.ErrRequestNotFound, code)
	}
	return req, err
}

func (s *Service) List(ctx context.Context, f Filter) (*Page, error) {
	rf := f
	if rf.Status != "" && !rf.Status.Valid() {
		return nil, approvalErrors.Validation(fmt.Sprintf("unknown status %q", rf.Status))
	}
	if rf.Offset < 0 || rf.Limit < 0 {
		return nil, approvalErrors.Validation("offset and limit must not be negative")
	}
	if rf.CreatedFrom != nil && rf.CreatedTo != nil && rf.CreatedTo.Before(*rf.CreatedFrom) {
		return nil, approvalErrors.Validation("created_to is before created_from")
	}
	switch {
	case rf.Limit == 0:
		rf.Limit = defaultPageSize
	case rf.Limit > maxPageSize:
		rf.Limit = maxPageSize
	}

	items, total, err := s.store.ListRequests(ctx, rf)
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total, Offset: rf.Offset, Limit: rf.Limit}, nil
}

// Transitions – status history of a request, oldest first
func (s *Service) Transitions(ctx context.Context, id string) ([]models.StatusTransition, error) {
	if _, err := s.loadRequest(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListTransitions(ctx, id)
}

// Approvers – vote slots of a request
func (s *Service) Approvers(ctx context.Context, id string) ([]models.Approver, error) {
	if _, err := s.loadRequest(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListRequestApprovers(ctx, id)
}

// Cancel – withdraws a pending request; only its requester or an admin may do so
func (s *Service) Cancel(ctx context.Context, id string, actor models.Actor) (*models.ApprovalRequest, error) {
	for range maxResolveAttempts {
		req, err := s.loadRequest(ctx, id)
		if err != nil {
			return nil, err
		}
		if actor.ID != req.RequesterID && !actor.IsAdmin {
			return nil, approvalErrors.ErrForbidden
		}
		if req.Status != models.StatusPending {
			return nil, fmt.Errorf("%w: %s is %s", approvalErrors.ErrInvalidState, req.Code, req.Status)
		}

		cancelled, err := s.transition(ctx, req, models.StatusCancelled, actor.ID, models.ResolutionCancelled, nil, req.VoteSeq)
		if errors.Is(err, approvalErrors.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.notifyUndecided(ctx, cancelled, notifier.TemplateResolved, models.ResolutionCancelled)
		return cancelled, nil
	}
	return nil, fmt.Errorf("cancel %s: %w", id, approvalErrors.ErrConflict)
}

// Expire – rejects an overdue pending request on behalf of the system. A vote committed before the
// sweep that already satisfies the policy wins: the request is resolved by decision instead.
// Returns ErrConflict when the request is no longer pending.
func (s *Service) Expire(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	for range maxResolveAttempts {
		req, err := s.loadRequest(ctx, id)
		if err != nil {
			return nil, err
		}
		if req.Status != models.StatusPending {
			return nil, fmt.Errorf("expire %s: %w", req.Code, approvalErrors.ErrConflict)
		}

		policy, err := s.registry.GetPolicy(ctx, req.ActionTypeID)
		if err != nil {
			return nil, err
		}
		slots, err := s.store.ListRequestApprovers(ctx, req.ID)
		if err != nil {
			return nil, err
		}

		outcome := Evaluate(policy, slots)
		if outcome.Resolved() {
			res, err := s.conclude(ctx, req, outcome)
			if errors.Is(err, approvalErrors.ErrConflict) {
				continue
			}
			if err != nil {
				return nil, err
			}
			return res.Request, nil
		}

		expired, err := s.transition(ctx, req, models.StatusRejected, models.SystemActor, models.ResolutionExpired, &outcome.Tally, req.VoteSeq)
		if errors.Is(err, approvalErrors.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.notify.Send(ctx, []string{expired.RequesterID}, notifier.TemplateExpired, s.notification(expired, models.ResolutionExpired))
		s.notifyUndecided(ctx, expired, notifier.TemplateExpired, models.ResolutionExpired)
		return expired, nil
	}
	return nil, fmt.Errorf("expire %s: %w", id, approvalErrors.ErrConflict)
}

// AddApprovers – ad-hoc slots for users not yet assigned to the request; returns the slots created
func (s *Service) AddApprovers(ctx context.Context, req *models.ApprovalRequest, userIDs []string, origin models.ApproverOrigin) ([]models.Approver, error) {
	var added []models.Approver
	for _, userID := range userIDs {
		slot := models.Approver{
			ID:        s.newID(),
			RequestID: &req.ID,
			UserID:    userID,
			Origin:    origin,
			Active:    true,
		}
		err := s.store.AddRequestApprover(ctx, &slot)
		if errors.Is(err, approvalErrors.ErrConflict) {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("add approver %s to %s: %w", userID, req.Code, err)
		}
		added = append(added, slot)
	}
	return added, nil
}

func (s *Service) notifyUndecided(ctx context.Context, req *models.ApprovalRequest, template, reason string) {
	slots, err := s.store.ListRequestApprovers(ctx, req.ID)
	if err != nil {
		s.log.WithField("code", req.Code).Errorf("list approvers for notification: %v", err)
		return
	}
	s.notify.Send(ctx, undecided(slots), template, s.notification(req, reason))
}
