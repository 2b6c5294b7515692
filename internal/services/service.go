package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"critical-approve/internal/events"
	"critical-approve/internal/executor"
	"critical-approve/internal/metrics"
	"critical-approve/internal/models"
	"critical-approve/internal/notifier"
	"critical-approve/internal/repositories"
	"critical-approve/pkg/approvalErrors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxResolveAttempts – a lost compare-and-swap means another vote or transition committed, so the
// number of retries is bounded by the writers of one request
const maxResolveAttempts = 32

// Executor – replays approved operations
type Executor interface {
	Validate(method string, payload []byte) error
	Execute(ctx context.Context, req *models.ApprovalRequest) (*executor.Result, error)
}

// Service – approval request lifecycle: submission, decisions, cancellation and queries
type Service struct {
	store    repositories.Store
	registry *Registry
	executor Executor
	notify   *notifier.Dispatcher
	events   events.Publisher
	metrics  *metrics.Metrics
	log      *logrus.Entry
	now      func() time.Time
	newID    func() string
}

type Option func(*Service)

func WithDispatcher(d *notifier.Dispatcher) Option {
	return func(s *Service) { s.notify = d }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(log *logrus.Entry) Option {
	return func(s *Service) { s.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store repositories.Store, registry *Registry, exec Executor, options ...Option) *Service {
	s := &Service{
		store:    store,
		registry: registry,
		executor: exec,
		events:   events.Noop{},
		log:      logrus.WithField("component", "approvals"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// transition – guarded status change plus its side channels (metrics, event stream).
// resolvedSeq is the last vote the change counts; votes committed after it end up late.
func (s *Service) transition(ctx context.Context, req *models.ApprovalRequest, to models.RequestStatus,
	actor, reason string, tally *models.Tally, resolvedSeq int64) (*models.ApprovalRequest, error) {
	change := repositories.StatusChange{
		RequestID:   req.ID,
		Version:     req.Version,
		From:        req.Status,
		To:          to,
		Actor:       actor,
		Reason:      reason,
		ResolvedSeq: resolvedSeq,
		At:          s.now(),
	}
	if tally != nil {
		change.Tally = *tally
	}

	updated, err := s.store.TransitionStatus(ctx, change)
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition(string(to))
	s.publish(ctx, req, change)

	s.log.WithFields(logrus.Fields{
		"code":  req.Code,
		"from":  change.From,
		"to":    to,
		"actor": actor,
	}).Info("request transitioned")
	return updated, nil
}

func (s *Service) publish(ctx context.Context, req *models.ApprovalRequest, c repositories.StatusChange) {
	t := events.Transition{
		RequestID:  req.ID,
		Code:       req.Code,
		ActionType: req.ActionTypeID,
		From:       c.From,
		To:         c.To,
		Actor:      c.Actor,
		Reason:     c.Reason,
		At:         c.At,
	}
	if c.From == models.StatusPending {
		tally := c.Tally
		t.Tally = &tally
	}
	if err := s.events.Publish(ctx, t); err != nil {
		s.log.WithField("code", req.Code).Warnf("publish transition: %v", err)
	}
}

// execute – runs an approved request and reports the outcome to the requester
func (s *Service) execute(ctx context.Context, approved *models.ApprovalRequest) (*executor.Result, error) {
	res, err := s.executor.Execute(ctx, approved)
	if err != nil {
		s.log.WithField("code", approved.Code).Errorf("execute approved request: %v", err)
		return nil, err
	}

	s.publish(ctx, approved, repositories.StatusChange{
		From:   models.StatusApproved,
		To:     res.Request.Status,
		Actor:  models.SystemActor,
		Reason: res.Request.ExecutionError,
		At:     s.now(),
	})

	template := notifier.TemplateExecuted
	if res.Err != nil {
		template = notifier.TemplateExecutionFailed
	}
	s.notify.Send(ctx, []string{approved.RequesterID}, template, s.notification(res.Request, res.Request.ExecutionError))
	return res, nil
}

func (s *Service) notification(req *models.ApprovalRequest, reason string) notifier.Data {
	return notifier.Data{
		Code:          req.Code,
		ActionType:    req.ActionTypeID,
		RequesterName: req.RequesterName,
		Justification: req.Justification,
		Status:        string(req.Status),
		Reason:        reason,
		Deadline:      req.Deadline,
		Now:           s.now(),
	}
}

func (s *Service) loadRequest(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	req, err := s.store.GetRequest(ctx, id)
	if errors.Is(err, approvalErrors.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", approvalErrors.ErrRequestNotFound, id)
	}
	return req, err
}

func undecided(slots []models.Approver) []string {
	var ids []string
	for _, a := range slots {
		if a.Active && !a.Decided() {
			ids = append(ids, a.UserID)
		}
	}
	return ids
}
