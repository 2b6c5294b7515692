package services_test

import (
	"context"
	"io"
	"sync"
	"time"

	"critical-approve/internal/executor"
	"critical-approve/internal/executor/mocks"
	"critical-approve/internal/models"
	"critical-approve/internal/notifier"
	"critical-approve/internal/repositories"
	"critical-approve/internal/repositories/memory"
	"critical-approve/internal/services"

	"github.com/sirupsen/logrus"
	"go.uber.org/mock/gomock"
)

var t0 = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

const cancelPayload = `{"beneficio_id":"B-77","motivo":"fraude confirmada"}`

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type sent struct {
	UserID   string
	Template string
	Code     string
}

// outbox – Notifier that remembers every delivery
type outbox struct {
	mu   sync.Mutex
	sent []sent
}

func (o *outbox) Notify(_ context.Context, userID, template string, data notifier.Data) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, sent{UserID: userID, Template: template, Code: data.Code})
	return nil
}

func (o *outbox) To(template string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	var users []string
	for _, s := range o.sent {
		if s.Template == template {
			users = append(users, s.UserID)
		}
	}
	return users
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type harness struct {
	store    *memory.Store
	registry *services.Registry
	service  *services.Service
	invoker  *mocks.MockInvoker
	outbox   *outbox
	clock    *clock
}

func newHarness(ctrl *gomock.Controller) *harness {
	return newWrappedHarness(ctrl, func(m *memory.Store) repositories.Store { return m })
}

// newWrappedHarness – harness whose service reaches the store through wrap
func newWrappedHarness(ctrl *gomock.Controller, wrap func(*memory.Store) repositories.Store) *harness {
	h := &harness{
		store:   memory.New(),
		invoker: mocks.NewMockInvoker(ctrl),
		outbox:  &outbox{},
		clock:   &clock{now: t0},
	}
	store := wrap(h.store)
	h.registry = services.NewRegistry(store, nil, quietLog())
	exec := executor.New(store, executor.DefaultHandlers(h.invoker), time.Second,
		executor.WithLogger(quietLog()), executor.WithClock(h.clock.Now))
	h.service = services.New(store, h.registry, exec,
		services.WithDispatcher(notifier.NewDispatcher(h.outbox, time.Second, quietLog())),
		services.WithLogger(quietLog()),
		services.WithClock(h.clock.Now),
	)
	return h
}

func (h *harness) actionType(ctx context.Context, in services.ActionTypeInput, approvers ...string) *models.ActionType {
	at, err := h.registry.RegisterActionType(ctx, in)
	if err != nil {
		panic(err)
	}
	for _, userID := range approvers {
		if _, err := h.registry.AssignStandingApprover(ctx, at.ID, services.Assignee{UserID: userID}); err != nil {
			panic(err)
		}
	}
	return at
}

func submitInput(actionType, requester string) services.SubmitInput {
	deadline := t0.Add(24 * time.Hour)
	return services.SubmitInput{
		ActionTypeID:    actionType,
		Requester:       models.Requester{ID: requester, Name: "Maria Souza", Profiles: []string{"analista"}},
		Justification:   "fraude confirmada pela auditoria",
		Payload:         []byte(cancelPayload),
		ExecutionMethod: executor.MethodCancelBenefit,
		Deadline:        &deadline,
	}
}

// heldStore – holds the vote of one slot inside RecordDecision until released
type heldStore struct {
	*memory.Store
	slotID  string
	entered chan struct{}
	release chan struct{}
}

func (h *heldStore) RecordDecision(ctx context.Context, requestID, approverID string, d repositories.DecisionRecord) (*models.Approver, error) {
	if approverID == h.slotID {
		close(h.entered)
		<-h.release
	}
	return h.Store.RecordDecision(ctx, requestID, approverID, d)
}
