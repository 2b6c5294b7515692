package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"critical-approve/internal/metrics"
	"critical-approve/internal/models"
	"critical-approve/internal/notifier"
	"critical-approve/internal/repositories"
	"critical-approve/internal/tracing"
	"critical-approve/pkg/approvalErrors"
	"github.com/sirupsen/logrus"
)

type Policies interface {
	GetPolicy(ctx context.Context, id string) (*models.ActionType, error)
}

// Approvals – request lifecycle operations the sweep triggers
type Approvals interface {
	Expire(ctx context.Context, id string) (*models.ApprovalRequest, error)
	AddApprovers(ctx context.Context, req *models.ApprovalRequest, userIDs []string, origin models.ApproverOrigin) ([]models.Approver, error)
}

type Store interface {
	ListDueRequests(ctx context.Context, before time.Time) ([]models.ApprovalRequest, error)
	ListRequestApprovers(ctx context.Context, requestID string) ([]models.Approver, error)
	ClaimReminder(ctx context.Context, requestID string, windowStart, at time.Time, recipients []string) (bool, error)
	ClaimEscalation(ctx context.Context, requestID string, expectedCount int, at time.Time, recipients []string) (bool, error)
}

var _ Store = (repositories.Store)(nil)

// Report – what one sweep did
type Report struct {
	Reminders   int
	Escalations int
	Expired     int
	Failed      int
}

// Scheduler – periodic sweep over pending requests with a deadline: reminders before it,
// escalation or expiry after it. Every action is claimed with a guarded update, so several
// instances may sweep concurrently.
type Scheduler struct {
	store     Store
	policies  Policies
	approvals Approvals
	notify    *notifier.Dispatcher
	interval  time.Duration
	window    time.Duration
	metrics   *metrics.Metrics
	log       *logrus.Entry
	now       func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Scheduler)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func WithLogger(log *logrus.Entry) Option {
	return func(s *Scheduler) { s.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func New(store Store, policies Policies, approvals Approvals, notify *notifier.Dispatcher,
	interval, window time.Duration, options ...Option) *Scheduler {
	s := &Scheduler{
		store:     store,
		policies:  policies,
		approvals: approvals,
		notify:    notify,
		interval:  interval,
		window:    window,
		log:       logrus.WithField("component", "scheduler"),
		now:       time.Now,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Start – runs the sweep loop in the background until Stop or ctx cancellation
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		_ = s.Run(ctx)
	}(s.done)
}

// Stop – cancels the loop and waits for the sweep in progress
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run – blocking sweep loop, returns when ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Infof("scheduler started, interval %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.log.Errorf("sweep failed: %v", err)
			}
		}
	}
}

// Sweep – one pass over every pending request whose deadline is within the reminder window or past.
// A failure on one request is logged and counted, the rest of the pass goes on.
func (s *Scheduler) Sweep(ctx context.Context) (report Report, err error) {
	started := time.Now()
	ctx, span := tracing.Start(ctx, "scheduler.Sweep")
	defer func() {
		s.metrics.ObserveSweep(time.Since(started))
		tracing.End(span, err)
	}()

	now := s.now()
	due, err := s.store.ListDueRequests(ctx, now.Add(s.window))
	if err != nil {
		return report, fmt.Errorf("list due requests: %w", err)
	}

	for i := range due {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		req := &due[i]
		if err := s.process(ctx, req, now, &report); err != nil {
			report.Failed++
			s.log.WithField("code", req.Code).Errorf("sweep: %v", err)
		}
	}

	if report != (Report{}) {
		s.log.WithFields(logrus.Fields{
			"reminders":   report.Reminders,
			"escalations": report.Escalations,
			"expired":     report.Expired,
			"failed":      report.Failed,
		}).Info("sweep finished")
	}
	return report, nil
}

func (s *Scheduler) process(ctx context.Context, req *models.ApprovalRequest, now time.Time, report *Report) error {
	deadline := *req.Deadline
	if deadline.After(now) {
		return s.remind(ctx, req, now, report)
	}
	if !deadline.Before(now) {
		return nil
	}

	policy, err := s.policies.GetPolicy(ctx, req.ActionTypeID)
	if err != nil {
		return err
	}
	if req.LastEscalatedAt != nil && req.LastEscalatedAt.Add(policy.EscalationInterval).After(now) {
		return nil
	}
	if policy.HasEscalationPolicy() && req.EscalationCount < policy.MaxEscalations {
		return s.escalate(ctx, req, policy, now, report)
	}
	return s.expire(ctx, req, report)
}

func (s *Scheduler) remind(ctx context.Context, req *models.ApprovalRequest, now time.Time, report *Report) error {
	slots, err := s.store.ListRequestApprovers(ctx, req.ID)
	if err != nil {
		return err
	}
	var recipients []string
	for _, a := range slots {
		if a.Active && !a.Decided() {
			recipients = append(recipients, a.UserID)
		}
	}
	if len(recipients) == 0 {
		return nil
	}

	claimed, err := s.store.ClaimReminder(ctx, req.ID, req.Deadline.Add(-s.window), now, recipients)
	if err != nil || !claimed {
		return err
	}
	report.Reminders++
	s.metrics.IncSweepAction(string(models.KindReminder))

	s.notify.Send(ctx, recipients, notifier.TemplateReminder, data(req, now, ""))
	return nil
}

func (s *Scheduler) escalate(ctx context.Context, req *models.ApprovalRequest, policy *models.ActionType, now time.Time, report *Report) error {
	var approvers []string
	for _, id := range policy.EscalationApprovers {
		if id == req.RequesterID && !policy.AllowSelfApproval {
			continue
		}
		approvers = append(approvers, id)
	}
	recipients := slices.Clone(approvers)
	for _, id := range policy.Supervisors {
		if !slices.Contains(recipients, id) {
			recipients = append(recipients, id)
		}
	}

	// slots first: a failed add leaves the level unclaimed for the next sweep, and the
	// retry skips users already assigned
	added, err := s.approvals.AddApprovers(ctx, req, approvers, models.OriginEscalation)
	if err != nil {
		return err
	}

	claimed, err := s.store.ClaimEscalation(ctx, req.ID, req.EscalationCount, now, recipients)
	if err != nil || !claimed {
		return err
	}
	report.Escalations++
	s.metrics.IncSweepAction(string(models.KindEscalation))

	s.log.WithFields(logrus.Fields{
		"code":  req.Code,
		"level": req.EscalationCount + 1,
		"added": len(added),
	}).Info("request escalated")

	s.notify.Send(ctx, recipients, notifier.TemplateEscalation, data(req, now, fmt.Sprintf("escalonamento %d", req.EscalationCount+1)))
	return nil
}

func (s *Scheduler) expire(ctx context.Context, req *models.ApprovalRequest, report *Report) error {
	expired, err := s.approvals.Expire(ctx, req.ID)
	if errors.Is(err, approvalErrors.ErrConflict) {
		// resolved by a vote or a cancel since the listing
		return nil
	}
	if err != nil {
		return err
	}
	if expired.Resolution != models.ResolutionExpired {
		// votes committed before the sweep already satisfied the policy
		return nil
	}
	report.Expired++
	s.metrics.IncSweepAction("expiry")
	return nil
}

func data(req *models.ApprovalRequest, now time.Time, reason string) notifier.Data {
	return notifier.Data{
		Code:          req.Code,
		ActionType:    req.ActionTypeID,
		RequesterName: req.RequesterName,
		Justification: req.Justification,
		Status:        string(req.Status),
		Reason:        reason,
		Deadline:      req.Deadline,
		Now:           now,
	}
}
