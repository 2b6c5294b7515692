package repositories

import (
	"context"
	"time"

	"critical-approve/internal/models"
)

type ActionTypeStore interface {
	CreateActionType(ctx context.Context, at *models.ActionType) error
	GetActionType(ctx context.Context, id string) (*models.ActionType, error)
	ListActionTypes(ctx context.Context, onlyActive bool) ([]models.ActionType, error)
	SaveActionType(ctx context.Context, at *models.ActionType) error
	SetActionTypeStatus(ctx context.Context, id string, status models.ActionTypeStatus) error
	CountRequestsByActionType(ctx context.Context, id string) (int64, error)

	AddStandingApprover(ctx context.Context, a *models.Approver) error
	ListStandingApprovers(ctx context.Context, actionTypeID string) ([]models.Approver, error)
	SetApproverActive(ctx context.Context, approverID string, active bool) error
}

type RequestStore interface {
	CreateRequest(ctx context.Context, req *models.ApprovalRequest, slots []models.Approver) error
	CodeExists(ctx context.Context, code string) (bool, error)
	GetRequest(ctx context.Context, id string) (*models.ApprovalRequest, error)
	GetRequestByCode(ctx context.Context, code string) (*models.ApprovalRequest, error)
	ListRequests(ctx context.Context, f RequestFilter) ([]models.ApprovalRequest, int64, error)
	ListDueRequests(ctx context.Context, before time.Time) ([]models.ApprovalRequest, error)

	TransitionStatus(ctx context.Context, c StatusChange) (*models.ApprovalRequest, error)
	ListTransitions(ctx context.Context, requestID string) ([]models.StatusTransition, error)

	ClaimReminder(ctx context.Context, requestID string, windowStart, at time.Time, recipients []string) (bool, error)
	ClaimEscalation(ctx context.Context, requestID string, expectedCount int, at time.Time, recipients []string) (bool, error)
}

type ApproverStore interface {
	ListRequestApprovers(ctx context.Context, requestID string) ([]models.Approver, error)
	FindRequestApprover(ctx context.Context, requestID, userID string) (*models.Approver, error)
	AddRequestApprover(ctx context.Context, a *models.Approver) error
	RecordDecision(ctx context.Context, requestID, approverID string, d DecisionRecord) (*models.Approver, error)
}

type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	SaveUser(ctx context.Context, u *models.User) error
	UsersWithProfile(ctx context.Context, profile string) ([]models.User, error)
}

// Store – everything the approval engine persists
type Store interface {
	ActionTypeStore
	RequestStore
	ApproverStore
	UserStore
}

// RequestFilter – listing criteria; zero values are ignored
type RequestFilter struct {
	Status       models.RequestStatus
	RequesterID  string
	ActionTypeID string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Offset       int
	Limit        int
}

// StatusChange – compare-and-swap of a request status, guarded by Version and From.
// Leaving pending stores ResolvedSeq and marks every vote committed after it as late.
type StatusChange struct {
	RequestID   string
	Version     int64
	From        models.RequestStatus
	To          models.RequestStatus
	Actor       string
	Reason      string
	Tally       models.Tally
	ResolvedSeq int64
	At          time.Time

	ExecutionError  string
	ExecutionResult []byte
}

type DecisionRecord struct {
	Decision      models.Decision
	Justification string
	Attachments   []string
	At            time.Time
}
