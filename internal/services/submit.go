package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"critical-approve/internal/models"
	"critical-approve/internal/notifier"
	"critical-approve/internal/tracing"
	"critical-approve/pkg/approvalErrors"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type SubmitInput struct {
	ActionTypeID    string
	Requester       models.Requester
	Justification   string
	Payload         []byte
	ExecutionMethod string
	Deadline        *time.Time
	Attachments     []string
	InternalNotes   string
}

func (in SubmitInput) validate() error {
	switch {
	case strings.TrimSpace(in.ActionTypeID) == "":
		return approvalErrors.Validation("action type is required")
	case strings.TrimSpace(in.Requester.ID) == "":
		return approvalErrors.Validation("requester is required")
	case strings.TrimSpace(in.Justification) == "":
		return approvalErrors.Validation("justification is required")
	case strings.TrimSpace(in.ExecutionMethod) == "":
		return approvalErrors.Validation("execution method is required")
	case len(in.Payload) == 0:
		return approvalErrors.Validation("action payload is required")
	}
	return nil
}

// Submit – opens an approval request for a critical action. The payload is stored byte for byte and
// replayed by the executor once approved.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (req *models.ApprovalRequest, err error) {
	ctx, span := tracing.Start(ctx, "approvals.Submit", tracing.ActionType(in.ActionTypeID))
	defer func() { tracing.End(span, err) }()

	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.executor.Validate(in.ExecutionMethod, in.Payload); err != nil {
		return nil, err
	}

	policy, err := s.registry.GetPolicy(ctx, in.ActionTypeID)
	if err != nil {
		return nil, err
	}
	if !policy.Active() {
		return nil, fmt.Errorf("%w: %s", approvalErrors.ErrActionTypeInactive, policy.ID)
	}

	now := s.now()
	if in.Deadline != nil && !in.Deadline.After(now) {
		return nil, approvalErrors.Validation("deadline must be in the future")
	}

	code, err := s.newCode(ctx, now)
	if err != nil {
		return nil, err
	}

	req = &models.ApprovalRequest{
		ID:                s.newID(),
		Code:              code,
		ActionTypeID:      policy.ID,
		RequesterID:       in.Requester.ID,
		RequesterName:     in.Requester.Name,
		RequesterEmail:    in.Requester.Email,
		RequesterProfiles: pq.StringArray(in.Requester.Profiles),
		Justification:     strings.TrimSpace(in.Justification),
		ActionPayload:     slices.Clone(in.Payload),
		ExecutionMethod:   in.ExecutionMethod,
		Status:            models.StatusPending,
		Deadline:          in.Deadline,
		Attachments:       pq.StringArray(in.Attachments),
		InternalNotes:     in.InternalNotes,
		CreatedAt:         now,
	}

	slots, err := s.materialize(ctx, policy, req)
	if err != nil {
		return nil, err
	}
	auto := policy.AutoApproves(in.Requester.Profiles)
	if len(slots) == 0 && !auto {
		return nil, fmt.Errorf("%w: %s", approvalErrors.ErrNoEligibleApprovers, policy.ID)
	}

	if err := s.store.CreateRequest(ctx, req, slots); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	s.metrics.IncSubmission(policy.ID)

	log := s.log.WithFields(logrus.Fields{
		"code":        req.Code,
		"action_type": policy.ID,
		"requester":   req.RequesterID,
	})
	log.Infof("request submitted with %d approvers", len(slots))

	if auto {
		return s.autoApprove(ctx, policy, req)
	}

	userIDs := make([]string, 0, len(slots))
	for _, slot := range slots {
		userIDs = append(userIDs, slot.UserID)
	}
	if failed := s.notify.Send(ctx, userIDs, notifier.TemplateNewRequest, s.notification(req, "")); failed > 0 {
		log.Warnf("%d approvers were not notified", failed)
	}
	return req, nil
}

func (s *Service) autoApprove(ctx context.Context, policy *models.ActionType, req *models.ApprovalRequest) (*models.ApprovalRequest, error) {
	tally := models.Tally{Strategy: policy.Strategy, Quorum: Quorum(policy)}
	approved, err := s.transition(ctx, req, models.StatusApproved, models.SystemActor, models.ResolutionAutoApproval, &tally, 0)
	if err != nil {
		return nil, fmt.Errorf("auto approve %s: %w", req.Code, err)
	}

	res, err := s.execute(ctx, approved)
	if err != nil {
		return approved, nil
	}
	return res.Request, nil
}

// materialize – one slot per eligible user of the standing assignments, profiles expanded to their members
func (s *Service) materialize(ctx context.Context, policy *models.ActionType, req *models.ApprovalRequest) ([]models.Approver, error) {
	standing, err := s.registry.StandingApprovers(ctx, policy.ID)
	if err != nil {
		return nil, err
	}

	var slots []models.Approver
	seen := make(map[string]bool)
	add := func(userID, profile string) {
		if seen[userID] || (userID == req.RequesterID && !policy.AllowSelfApproval) {
			return
		}
		seen[userID] = true
		slots = append(slots, models.Approver{
			ID:        s.newID(),
			RequestID: &req.ID,
			UserID:    userID,
			Profile:   profile,
			Origin:    models.OriginStanding,
			Active:    true,
		})
	}

	for _, a := range standing {
		if !a.Active {
			continue
		}
		if a.UserID != "" {
			add(a.UserID, "")
			continue
		}
		users, err := s.store.UsersWithProfile(ctx, a.Profile)
		if err != nil {
			return nil, fmt.Errorf("expand profile %s: %w", a.Profile, err)
		}
		for _, u := range users {
			add(u.ID, a.Profile)
		}
	}
	return slots, nil
}
