package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"critical-approve/internal/executor"
	"critical-approve/internal/models"
	"critical-approve/internal/notifier"
	"critical-approve/internal/repositories"
	"critical-approve/internal/tracing"
	"critical-approve/pkg/approvalErrors"
	"github.com/sirupsen/logrus"
)

type CastDecisionInput struct {
	RequestID     string
	ApproverID    string // user id of the voter
	Decision      models.Decision
	Justification string
	Attachments   []string
}

type DecisionResult struct {
	Request  *models.ApprovalRequest
	Approver *models.Approver
	Outcome  Outcome

	// Resolved – this vote crossed the threshold that moved the request out of pending
	Resolved bool
	// Late – the vote is not part of the tally that resolved the request; kept for audit only
	Late bool

	Execution *executor.Result
}

// CastDecision – records one approver's vote and resolves the request when the policy is satisfied.
// Concurrent votes are safe: the status change is a guarded update and exactly one caller wins it.
func (s *Service) CastDecision(ctx context.Context, in CastDecisionInput) (res *DecisionResult, err error) {
	ctx, span := tracing.Start(ctx, "approvals.CastDecision")
	defer func() { tracing.End(span, err) }()

	if in.RequestID == "" || in.ApproverID == "" {
		return nil, approvalErrors.Validation("request and approver are required")
	}

	req, err := s.loadRequest(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracing.Code(req.Code), tracing.ActionType(req.ActionTypeID))

	policy, err := s.registry.GetPolicy(ctx, req.ActionTypeID)
	if err != nil {
		return nil, err
	}
	if in.ApproverID == req.RequesterID && !policy.AllowSelfApproval {
		return nil, approvalErrors.ErrSelfApprovalNotAllowed
	}

	if !in.Decision.Valid() {
		return nil, approvalErrors.Validation(fmt.Sprintf("unknown decision %q", in.Decision))
	}
	justification := strings.TrimSpace(in.Justification)
	if in.Decision == models.DecisionRejected && justification == "" {
		return nil, approvalErrors.Validation("justification is required to reject")
	}

	slot, err := s.store.FindRequestApprover(ctx, req.ID, in.ApproverID)
	if errors.Is(err, approvalErrors.ErrRecordNotFound) {
		return nil, approvalErrors.ErrApproverNotFound
	}
	if err != nil {
		return nil, err
	}
	if !slot.Active {
		return nil, approvalErrors.ErrApproverInactive
	}
	if slot.Decided() {
		return nil, approvalErrors.ErrAlreadyDecided
	}

	slot, err = s.store.RecordDecision(ctx, req.ID, slot.ID, repositories.DecisionRecord{
		Decision:      in.Decision,
		Justification: justification,
		Attachments:   in.Attachments,
		At:            s.now(),
	})
	if errors.Is(err, approvalErrors.ErrConflict) {
		return nil, approvalErrors.ErrAlreadyDecided
	}
	if err != nil {
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{
		"code":     req.Code,
		"approver": in.ApproverID,
		"decision": in.Decision,
		"seq":      slot.DecisionSeq,
	})
	return s.resolve(ctx, log, policy, slot)
}

// resolve – re-evaluates the request after a vote, retrying when a concurrent writer moved it first.
// Every vote bumps the request version, so a transition only succeeds on a tally that saw every
// committed vote.
func (s *Service) resolve(ctx context.Context, log *logrus.Entry, policy *models.ActionType, slot *models.Approver) (*DecisionResult, error) {
	for range maxResolveAttempts {
		req, err := s.loadRequest(ctx, *slot.RequestID)
		if err != nil {
			return nil, err
		}
		if req.Status != models.StatusPending {
			return s.settled(log, req, slot, nil), nil
		}

		slots, err := s.store.ListRequestApprovers(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		outcome := Evaluate(policy, slots)
		if !outcome.Resolved() {
			s.metrics.IncDecision(string(slot.Decision), "pending")
			log.Infof("vote recorded, %d/%d approvals", outcome.Tally.Approvals, outcome.Tally.Quorum)
			return &DecisionResult{Request: req, Approver: slot, Outcome: outcome}, nil
		}

		concluded, err := s.conclude(ctx, req, outcome)
		if errors.Is(err, approvalErrors.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res := s.settled(log, concluded.Request, slot, concluded.Execution)
		res.Outcome = outcome
		return res, nil
	}
	return nil, fmt.Errorf("resolve %s: %w", *slot.RequestID, approvalErrors.ErrConflict)
}

type concluded struct {
	Request   *models.ApprovalRequest
	Execution *executor.Result
}

// conclude – moves a pending request to the outcome of its votes, then executes it when approved.
// The deciding voter is recorded as the actor whoever performs the write.
func (s *Service) conclude(ctx context.Context, req *models.ApprovalRequest, outcome Outcome) (*concluded, error) {
	resolved, err := s.transition(ctx, req, outcome.Status, outcome.DecidingUser, models.ResolutionDecision, &outcome.Tally, outcome.DecidingSeq)
	if err != nil {
		return nil, err
	}

	res := &concluded{Request: resolved}
	s.notify.Send(ctx, []string{resolved.RequesterID}, notifier.TemplateResolved, s.notification(resolved, ""))
	s.notifyUndecided(ctx, resolved, notifier.TemplateResolved, "")

	if resolved.Status == models.StatusApproved {
		if exec, err := s.execute(ctx, resolved); err == nil {
			res.Execution = exec
			res.Request = exec.Request
		}
	}
	return res, nil
}

// settled – classifies a vote against the resolution stored on the request
func (s *Service) settled(log *logrus.Entry, req *models.ApprovalRequest, slot *models.Approver, exec *executor.Result) *DecisionResult {
	res := &DecisionResult{Request: req, Approver: slot, Execution: exec}
	switch {
	case slot.Late || slot.DecisionSeq > req.ResolvedSeq:
		slot.Late = true
		res.Late = true
		s.metrics.IncDecision(string(slot.Decision), "late")
		log.Infof("late vote on %s request", req.Status)
	case req.Resolution == models.ResolutionDecision && slot.DecisionSeq == req.ResolvedSeq:
		res.Resolved = true
		s.metrics.IncDecision(string(slot.Decision), "resolving")
	default:
		// counted, but an earlier or later vote crossed the threshold
		s.metrics.IncDecision(string(slot.Decision), "pending")
	}
	return res
}

// AddAdHocApprover – extra voter for a pending request, added by its requester or an admin
func (s *Service) AddAdHocApprover(ctx context.Context, requestID, userID string, actor models.Actor) (*models.Approver, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, approvalErrors.Validation("approver is required")
	}

	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor.ID != req.RequesterID && !actor.IsAdmin {
		return nil, approvalErrors.ErrForbidden
	}
	if req.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", approvalErrors.ErrInvalidState, req.Code, req.Status)
	}

	policy, err := s.registry.GetPolicy(ctx, req.ActionTypeID)
	if err != nil {
		return nil, err
	}
	if userID == req.RequesterID && !policy.AllowSelfApproval {
		return nil, approvalErrors.ErrSelfApprovalNotAllowed
	}

	slot := &models.Approver{
		ID:        s.newID(),
		RequestID: &req.ID,
		UserID:    userID,
		Origin:    models.OriginAdHoc,
		Active:    true,
	}
	err = s.store.AddRequestApprover(ctx, slot)
	if errors.Is(err, approvalErrors.ErrConflict) {
		return nil, approvalErrors.ErrAlreadyAssigned
	}
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"code": req.Code, "approver": userID}).Info("ad-hoc approver added")
	s.notify.Send(ctx, []string{userID}, notifier.TemplateNewRequest, s.notification(req, ""))
	return slot, nil
}
