package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"critical-approve/internal/models"
	"critical-approve/internal/repositories"
	"critical-approve/pkg/approvalErrors"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

var tagPattern = regexp.MustCompile(`^[a-z0-9_.-]+$`)

type ActionTypeInput struct {
	ID                   string
	Name                 string
	Description          string
	Strategy             models.Strategy
	MinApprovers         int
	AllowSelfApproval    bool
	AutoApprovalProfiles []string

	EscalationApprovers []string
	Supervisors         []string
	MaxEscalations      int
	EscalationInterval  time.Duration
}

// Assignee – a standing approver is bound either to a user or to a profile, never both
type Assignee struct {
	UserID  string
	Profile string
}

// Registry – action types, their approval policy and their standing approvers
type Registry struct {
	store repositories.ActionTypeStore
	cache PolicyCache
	log   *logrus.Entry
}

func NewRegistry(store repositories.ActionTypeStore, cache PolicyCache, log *logrus.Entry) *Registry {
	if log == nil {
		log = logrus.WithField("component", "registry")
	}
	return &Registry{store: store, cache: cache, log: log}
}

// GetPolicy – read-through cached policy lookup
func (r *Registry) GetPolicy(ctx context.Context, id string) (*models.ActionType, error) {
	if r.cache != nil {
		at, err := r.cache.Get(ctx, id)
		if err == nil {
			return at, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			r.log.Warnf("policy cache read %s: %v", id, err)
		}
	}

	at, err := r.store.GetActionType(ctx, id)
	if errors.Is(err, approvalErrors.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", approvalErrors.ErrActionTypeNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, at); err != nil {
			r.log.Warnf("policy cache write %s: %v", id, err)
		}
	}
	return at, nil
}

func (r *Registry) RegisterActionType(ctx context.Context, in ActionTypeInput) (*models.ActionType, error) {
	at, err := buildActionType(in)
	if err != nil {
		return nil, err
	}
	at.Status = models.ActionTypeActive

	err = r.store.CreateActionType(ctx, at)
	if errors.Is(err, approvalErrors.ErrConflict) {
		return nil, approvalErrors.Validation(fmt.Sprintf("action type %s already exists", at.ID))
	}
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, at.ID)

	r.log.WithField("action_type", at.ID).Info("action type registered")
	return at, nil
}

// UpdatePolicy – replaces the policy of an action type that no request references yet
func (r *Registry) UpdatePolicy(ctx context.Context, id string, in ActionTypeInput) (*models.ActionType, error) {
	in.ID = id
	at, err := buildActionType(in)
	if err != nil {
		return nil, err
	}

	current, err := r.GetPolicy(ctx, id)
	if err != nil {
		return nil, err
	}
	used, err := r.store.CountRequestsByActionType(ctx, id)
	if err != nil {
		return nil, err
	}
	if used > 0 {
		return nil, approvalErrors.ErrActionTypeInUse
	}

	at.Status = current.Status
	at.CreatedAt = current.CreatedAt
	if err := r.store.SaveActionType(ctx, at); err != nil {
		return nil, r.notFound(id, err)
	}
	r.invalidate(ctx, id)

	r.log.WithField("action_type", id).Info("action type policy updated")
	return at, nil
}

func (r *Registry) Deactivate(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, models.ActionTypeInactive)
}

func (r *Registry) Activate(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, models.ActionTypeActive)
}

func (r *Registry) setStatus(ctx context.Context, id string, status models.ActionTypeStatus) error {
	if err := r.store.SetActionTypeStatus(ctx, id, status); err != nil {
		return r.notFound(id, err)
	}
	r.invalidate(ctx, id)

	r.log.WithFields(logrus.Fields{"action_type": id, "status": status}).Info("action type status changed")
	return nil
}

func (r *Registry) ListActionTypes(ctx context.Context, onlyActive bool) ([]models.ActionType, error) {
	return r.store.ListActionTypes(ctx, onlyActive)
}

func (r *Registry) AssignStandingApprover(ctx context.Context, actionTypeID string, who Assignee) (*models.Approver, error) {
	who.UserID = strings.TrimSpace(who.UserID)
	who.Profile = strings.ToLower(strings.TrimSpace(who.Profile))

	switch {
	case who.UserID == "" && who.Profile == "":
		return nil, approvalErrors.Validation("either user or profile is required")
	case who.UserID != "" && who.Profile != "":
		return nil, approvalErrors.Validation("user and profile are mutually exclusive")
	case who.Profile != "" && !tagPattern.MatchString(who.Profile):
		return nil, approvalErrors.Validation(fmt.Sprintf("invalid profile %q", who.Profile))
	}

	if _, err := r.GetPolicy(ctx, actionTypeID); err != nil {
		return nil, err
	}

	existing, err := r.store.ListStandingApprovers(ctx, actionTypeID)
	if err != nil {
		return nil, err
	}
	for _, a := range existing {
		if a.UserID == who.UserID && a.Profile == who.Profile {
			return nil, approvalErrors.ErrAlreadyAssigned
		}
	}

	approver := &models.Approver{
		ID:           uuid.NewString(),
		ActionTypeID: &actionTypeID,
		UserID:       who.UserID,
		Profile:      who.Profile,
		Origin:       models.OriginStanding,
		Active:       true,
	}
	if err := r.store.AddStandingApprover(ctx, approver); err != nil {
		return nil, err
	}

	r.log.WithFields(logrus.Fields{
		"action_type": actionTypeID,
		"user":        who.UserID,
		"profile":     who.Profile,
	}).Info("standing approver assigned")
	return approver, nil
}

// DeactivateStandingApprover – future requests no longer get a slot for this assignment
func (r *Registry) DeactivateStandingApprover(ctx context.Context, approverID string) error {
	err := r.store.SetApproverActive(ctx, approverID, false)
	if errors.Is(err, approvalErrors.ErrRecordNotFound) {
		return approvalErrors.ErrApproverNotFound
	}
	return err
}

func (r *Registry) StandingApprovers(ctx context.Context, actionTypeID string) ([]models.Approver, error) {
	return r.store.ListStandingApprovers(ctx, actionTypeID)
}

func (r *Registry) invalidate(ctx context.Context, id string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, id); err != nil {
		r.log.Warnf("policy cache invalidate %s: %v", id, err)
	}
}

func (r *Registry) notFound(id string, err error) error {
	if errors.Is(err, approvalErrors.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", approvalErrors.ErrActionTypeNotFound, id)
	}
	return err
}

func buildActionType(in ActionTypeInput) (*models.ActionType, error) {
	id := strings.TrimSpace(in.ID)
	switch {
	case id == "":
		return nil, approvalErrors.Validation("action type id is required")
	case !tagPattern.MatchString(id):
		return nil, approvalErrors.Validation(fmt.Sprintf("invalid action type id %q", id))
	case strings.TrimSpace(in.Name) == "":
		return nil, approvalErrors.Validation("action type name is required")
	case !in.Strategy.Valid():
		return nil, approvalErrors.Validation(fmt.Sprintf("unknown strategy %q", in.Strategy))
	case in.MinApprovers < 1:
		return nil, approvalErrors.Validation("min_approvers must be at least 1")
	case in.MaxEscalations < 0:
		return nil, approvalErrors.Validation("max_escalations must not be negative")
	case in.EscalationInterval < 0:
		return nil, approvalErrors.Validation("escalation_interval must not be negative")
	}

	profiles, err := normalizeTags(in.AutoApprovalProfiles)
	if err != nil {
		return nil, err
	}

	return &models.ActionType{
		ID:                   id,
		Name:                 strings.TrimSpace(in.Name),
		Description:          strings.TrimSpace(in.Description),
		Strategy:             in.Strategy,
		MinApprovers:         in.MinApprovers,
		AllowSelfApproval:    in.AllowSelfApproval,
		AutoApprovalProfiles: pq.StringArray(profiles),
		EscalationApprovers:  pq.StringArray(compactIDs(in.EscalationApprovers)),
		Supervisors:          pq.StringArray(compactIDs(in.Supervisors)),
		MaxEscalations:       in.MaxEscalations,
		EscalationInterval:   in.EscalationInterval,
	}, nil
}

// normalizeTags – lower-cases, validates and de-duplicates profile tags
func normalizeTags(tags []string) ([]string, error) {
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if !tagPattern.MatchString(t) {
			return nil, approvalErrors.Validation(fmt.Sprintf("invalid profile %q", t))
		}
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func compactIDs(ids []string) []string {
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
