package executor

import (
	"context"
	"fmt"
	"time"

	"critical-approve/internal/metrics"
	"critical-approve/internal/models"
	"critical-approve/internal/repositories"
	"critical-approve/internal/tracing"
	"critical-approve/pkg/approvalErrors"
	"github.com/sirupsen/logrus"
)

// Result – outcome of replaying a deferred operation. Err is the recorded execution failure, not an
// infrastructure error.
type Result struct {
	Request *models.ApprovalRequest
	Output  []byte
	Err     error
}

type Executor struct {
	store    repositories.RequestStore
	handlers *Handlers
	timeout  time.Duration
	metrics  *metrics.Metrics
	log      *logrus.Entry
	now      func() time.Time
}

type Option func(*Executor)

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

func WithLogger(log *logrus.Entry) Option {
	return func(e *Executor) { e.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

func New(store repositories.RequestStore, handlers *Handlers, timeout time.Duration, options ...Option) *Executor {
	e := &Executor{
		store:    store,
		handlers: handlers,
		timeout:  timeout,
		log:      logrus.WithField("component", "executor"),
		now:      time.Now,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Validate – checks at submit time that method is registered and payload decodes into its command
func (e *Executor) Validate(method string, payload []byte) error {
	handler, err := e.handlers.Lookup(method)
	if err != nil {
		return err
	}
	if err := handler.Validate(payload); err != nil {
		return fmt.Errorf("%w: %v", approvalErrors.ErrValidation, err)
	}
	return nil
}

// Execute – replays the deferred operation of an approved request and records the outcome.
// The request ends executed or execution_error; failures are never retried here.
func (e *Executor) Execute(ctx context.Context, req *models.ApprovalRequest) (res *Result, err error) {
	ctx, span := tracing.Start(ctx, "executor.Execute", tracing.Code(req.Code), tracing.ActionType(req.ActionTypeID))
	defer func() { tracing.End(span, err) }()

	if req.Status != models.StatusApproved {
		return nil, fmt.Errorf("%w: request %s is %s", approvalErrors.ErrInvalidState, req.Code, req.Status)
	}

	output, execErr := e.run(ctx, req)

	change := repositories.StatusChange{
		RequestID: req.ID,
		Version:   req.Version,
		From:      models.StatusApproved,
		To:        models.StatusExecuted,
		Actor:     models.SystemActor,
		At:        e.now(),
	}
	outcome := string(models.StatusExecuted)
	if execErr != nil {
		change.To = models.StatusExecutionError
		change.ExecutionError = execErr.Error()
		change.Reason = "execution failed"
		outcome = string(models.StatusExecutionError)
	} else {
		change.ExecutionResult = output
	}

	// the outcome is recorded even if the caller's context is already done
	updated, err := e.store.TransitionStatus(context.WithoutCancel(ctx), change)
	if err != nil {
		return nil, fmt.Errorf("record execution of %s: %w", req.Code, err)
	}
	e.metrics.IncExecution(req.ExecutionMethod, outcome)
	e.metrics.IncTransition(string(change.To))

	entry := e.log.WithFields(logrus.Fields{
		"code":   req.Code,
		"method": req.ExecutionMethod,
	})
	if execErr != nil {
		entry.Errorf("execution failed: %v", execErr)
		return &Result{Request: updated, Err: approvalErrors.Execution(execErr)}, nil
	}
	entry.Info("execution completed")
	return &Result{Request: updated, Output: output}, nil
}

func (e *Executor) run(ctx context.Context, req *models.ApprovalRequest) ([]byte, error) {
	handler, err := e.handlers.Lookup(req.ExecutionMethod)
	if err != nil {
		return nil, err
	}

	// bounded by the executor timeout only: a caller giving up must not abort an approved operation
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	type reply struct {
		output []byte
		err    error
	}
	done := make(chan reply, 1)
	go func() {
		output, err := handler.Handle(ctx, req.ActionPayload)
		done <- reply{output, err}
	}()

	select {
	case r := <-done:
		return r.output, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w after %s", approvalErrors.ErrExecutionTimeout, e.timeout)
	}
}
