package approvalErrors

import "errors"

// Categories. Every specific error below unwraps to exactly one of them.
var (
	ErrValidation = errors.New("validation error")
	ErrPolicy     = errors.New("policy error")
	ErrState      = errors.New("state error")
	ErrNotFound   = errors.New("not found")
	ErrExecution  = errors.New("execution error")
)

// Storage facts, translated by services into the categories above.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrConflict       = errors.New("concurrent modification")
)

var ErrActionTypeNotFound = kind(ErrNotFound, "action type not found")
var ErrRequestNotFound = kind(ErrNotFound, "approval request not found")
var ErrApproverNotFound = kind(ErrNotFound, "approver not assigned to request")

var ErrActionTypeInactive = kind(ErrPolicy, "action type is inactive")
var ErrActionTypeInUse = kind(ErrPolicy, "action type is referenced by existing requests")
var ErrNoEligibleApprovers = kind(ErrPolicy, "no eligible approvers for request")
var ErrSelfApprovalNotAllowed = kind(ErrPolicy, "requester cannot decide on own request")
var ErrApproverInactive = kind(ErrPolicy, "approver slot is inactive")
var ErrForbidden = kind(ErrPolicy, "forbidden")

var ErrInvalidState = kind(ErrState, "request is not in the required state")
var ErrInvalidTransition = kind(ErrState, "invalid status transition")
var ErrAlreadyDecided = kind(ErrState, "approver already decided")
var ErrAlreadyAssigned = kind(ErrState, "approver already assigned to request")

var ErrUnknownExecutionMethod = kind(ErrValidation, "unknown execution method")
var ErrExecutionTimeout = kind(ErrExecution, "execution timed out")

type kindError struct {
	category error
	msg      string
}

func kind(category error, msg string) error {
	return &kindError{category: category, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.category }

// Validation – builds an ad-hoc validation error for a bad input field
func Validation(msg string) error {
	return kind(ErrValidation, msg)
}

// Execution – wraps a failure of the deferred operation
func Execution(err error) error {
	return &wrapped{category: ErrExecution, err: err}
}

type wrapped struct {
	category error
	err      error
}

func (w *wrapped) Error() string { return w.err.Error() }

func (w *wrapped) Unwrap() []error { return []error{w.category, w.err} }
