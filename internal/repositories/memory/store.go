package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"critical-approve/internal/models"
	"critical-approve/internal/repositories"
	"critical-approve/pkg/approvalErrors"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Store – in-memory repositories.Store. A single mutex serializes every write, which gives the
// same commit-order semantics the postgres repository gets from its guarded updates.
type Store struct {
	mu sync.RWMutex

	actionTypes map[string]models.ActionType
	requests    map[string]models.ApprovalRequest
	approvers   map[string]models.Approver
	transitions []models.StatusTransition
	reminders   []models.ApprovalReminder
	users       map[string]models.User
}

func New() *Store {
	return &Store{
		actionTypes: make(map[string]models.ActionType),
		requests:    make(map[string]models.ApprovalRequest),
		approvers:   make(map[string]models.Approver),
		users:       make(map[string]models.User),
	}
}

var _ repositories.Store = (*Store)(nil)

func (s *Store) CreateActionType(_ context.Context, at *models.ActionType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.actionTypes[at.ID]; ok {
		return approvalErrors.ErrConflict
	}
	now := time.Now()
	at.CreatedAt, at.UpdatedAt = now, now
	s.actionTypes[at.ID] = *at
	return nil
}

func (s *Store) GetActionType(_ context.Context, id string) (*models.ActionType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	at, ok := s.actionTypes[id]
	if !ok {
		return nil, approvalErrors.ErrRecordNotFound
	}
	return &at, nil
}

func (s *Store) ListActionTypes(_ context.Context, onlyActive bool) ([]models.ActionType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []models.ActionType
	for _, at := range s.actionTypes {
		if onlyActive && !at.Active() {
			continue
		}
		list = append(list, at)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *Store) SaveActionType(_ context.Context, at *models.ActionType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.actionTypes[at.ID]
	if !ok {
		return approvalErrors.ErrRecordNotFound
	}
	updated := *at
	updated.Status = current.Status
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now()
	s.actionTypes[at.ID] = updated
	return nil
}

func (s *Store) SetActionTypeStatus(_ context.Context, id string, status models.ActionTypeStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.actionTypes[id]
	if !ok {
		return approvalErrors.ErrRecordNotFound
	}
	at.Status = status
	at.UpdatedAt = time.Now()
	s.actionTypes[id] = at
	return nil
}

func (s *Store) CountRequestsByActionType(_ context.Context, id string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, req := range s.requests {
		if req.ActionTypeID == id {
			count++
		}
	}
	return count, nil
}

func (s *Store) AddStandingApprover(_ context.Context, a *models.Approver) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.approvers[a.ID]; ok {
		return approvalErrors.ErrConflict
	}
	a.CreatedAt, a.UpdatedAt = time.Now(), time.Now()
	s.approvers[a.ID] = *a
	return nil
}

func (s *Store) ListStandingApprovers(_ context.Context, actionTypeID string) ([]models.Approver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []models.Approver
	for _, a := range s.approvers {
		if a.RequestID == nil && a.ActionTypeID != nil && *a.ActionTypeID == actionTypeID && a.Active {
			list = append(list, a)
		}
	}
	sortApprovers(list)
	return list, nil
}

func (s *Store) SetApproverActive(_ context.Context, approverID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.approvers[approverID]
	if !ok {
		return approvalErrors.ErrRecordNotFound
	}
	a.Active = active
	a.UpdatedAt = time.Now()
	s.approvers[approverID] = a
	return nil
}

func (s *Store) CreateRequest(_ context.Context, req *models.ApprovalRequest, slots []models.Approver) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[req.ID]; ok {
		return approvalErrors.ErrConflict
	}
	for _, existing := range s.requests {
		if existing.Code == req.Code {
			return approvalErrors.ErrConflict
		}
	}
	seen := make(map[string]bool)
	for _, slot := range slots {
		if _, ok := s.approvers[slot.ID]; ok || seen[slot.UserID] {
			return approvalErrors.ErrConflict
		}
		seen[slot.UserID] = true
	}

	now := time.Now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now
	req.ActionPayload = slices.Clone(req.ActionPayload)
	s.requests[req.ID] = *req
	for _, slot := range slots {
		slot.CreatedAt, slot.UpdatedAt = now, now
		s.approvers[slot.ID] = slot
	}
	return nil
}

func (s *Store) CodeExists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, req := range s.requests {
		if req.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GetRequest(_ context.Context, id string) (*models.ApprovalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, approvalErrors.ErrRecordNotFound
	}
	return &req, nil
}

func (s *Store) GetRequestByCode(_ context.Context, code string) (*models.ApprovalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, req := range s.requests {
		if req.Code == code {
			return &req, nil
		}
	}
	return nil, approvalErrors.ErrRecordNotFound
}

func (s *Store) ListRequests(_ context.Context, f repositories.RequestFilter) ([]models.ApprovalRequest, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.ApprovalRequest
	for _, req := range s.requests {
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		if f.RequesterID != "" && req.RequesterID != f.RequesterID {
			continue
		}
		if f.ActionTypeID != "" && req.ActionTypeID != f.ActionTypeID {
			continue
		}
		if f.CreatedFrom != nil && req.CreatedAt.Before(*f.CreatedFrom) {
			continue
		}
		if f.CreatedTo != nil && !req.CreatedAt.Before(*f.CreatedTo) {
			continue
		}
		matched = append(matched, req)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	start := min(f.Offset, len(matched))
	end := len(matched)
	if f.Limit > 0 {
		end = min(start+f.Limit, len(matched))
	}
	return matched[start:end], total, nil
}

func (s *Store) ListDueRequests(_ context.Context, before time.Time) ([]models.ApprovalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []models.ApprovalRequest
	for _, req := range s.requests {
		if req.Status == models.StatusPending && req.Deadline != nil && !req.Deadline.After(before) {
			list = append(list, req)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Deadline.Equal(*list[j].Deadline) {
			return list[i].Deadline.Before(*list[j].Deadline)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (s *Store) TransitionStatus(_ context.Context, c repositories.StatusChange) (*models.ApprovalRequest, error) {
	if !models.CanTransition(c.From, c.To) {
		return nil, approvalErrors.ErrInvalidTransition
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[c.RequestID]
	if !ok {
		return nil, approvalErrors.ErrRecordNotFound
	}
	if req.Version != c.Version || req.Status != c.From {
		return nil, approvalErrors.ErrConflict
	}

	at := c.At
	req.Status = c.To
	req.Version++
	req.UpdatedAt = at
	if c.From == models.StatusPending {
		req.ResolvedSeq = c.ResolvedSeq
		req.Resolution = c.Reason
		for id, a := range s.approvers {
			if a.RequestID != nil && *a.RequestID == c.RequestID && a.Decided() && a.DecisionSeq > c.ResolvedSeq {
				a.Late = true
				s.approvers[id] = a
			}
		}
	}
	switch c.To {
	case models.StatusApproved, models.StatusRejected, models.StatusCancelled:
		req.ResolvedAt = &at
	case models.StatusExecuted:
		req.ExecutedAt = &at
		req.ExecutionResult = slices.Clone(c.ExecutionResult)
	case models.StatusExecutionError:
		req.ExecutedAt = &at
		req.ExecutionError = c.ExecutionError
	}
	s.requests[c.RequestID] = req

	t := models.StatusTransition{
		ID:         uint(len(s.transitions) + 1),
		RequestID:  c.RequestID,
		FromStatus: c.From,
		ToStatus:   c.To,
		Actor:      c.Actor,
		Reason:     c.Reason,
		CreatedAt:  at,
		Tally:      datatypes.NewJSONType(c.Tally),
		UpdatedAt:  at,
	}
	s.transitions = append(s.transitions, t)

	return &req, nil
}

func (s *Store) ListTransitions(_ context.Context, requestID string) ([]models.StatusTransition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []models.StatusTransition
	for _, t := range s.transitions {
		if t.RequestID == requestID {
			list = append(list, t)
		}
	}
	return list, nil
}

func (s *Store) ClaimReminder(_ context.Context, requestID string, windowStart, at time.Time, recipients []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[requestID]
	if !ok || req.Status != models.StatusPending {
		return false, nil
	}
	if req.LastReminderAt != nil && !req.LastReminderAt.Before(windowStart) {
		return false, nil
	}
	req.ReminderCount++
	req.LastReminderAt = &at
	s.requests[requestID] = req
	s.reminders = append(s.reminders, models.ApprovalReminder{
		ID:         len(s.reminders) + 1,
		RequestID:  requestID,
		Kind:       models.KindReminder,
		Recipients: pq.StringArray(recipients),
		CreatedAt:  at,
	})
	return true, nil
}

func (s *Store) ClaimEscalation(_ context.Context, requestID string, expectedCount int, at time.Time, recipients []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[requestID]
	if !ok || req.Status != models.StatusPending || req.EscalationCount != expectedCount {
		return false, nil
	}
	req.EscalationCount++
	req.LastEscalatedAt = &at
	s.requests[requestID] = req
	s.reminders = append(s.reminders, models.ApprovalReminder{
		ID:         len(s.reminders) + 1,
		RequestID:  requestID,
		Kind:       models.KindEscalation,
		Recipients: pq.StringArray(recipients),
		CreatedAt:  at,
	})
	return true, nil
}

// RemindersByRequest – reminder and escalation history of a request
func (s *Store) RemindersByRequest(_ context.Context, requestID string) ([]models.ApprovalReminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []models.ApprovalReminder
	for _, r := range s.reminders {
		if r.RequestID == requestID {
			list = append(list, r)
		}
	}
	return list, nil
}

func (s *Store) ListRequestApprovers(_ context.Context, requestID string) ([]models.Approver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []models.Approver
	for _, a := range s.approvers {
		if a.RequestID != nil && *a.RequestID == requestID {
			list = append(list, a)
		}
	}
	sortApprovers(list)
	return list, nil
}

func (s *Store) FindRequestApprover(_ context.Context, requestID, userID string) (*models.Approver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.approvers {
		if a.RequestID != nil && *a.RequestID == requestID && a.UserID == userID {
			return &a, nil
		}
	}
	return nil, approvalErrors.ErrRecordNotFound
}

func (s *Store) AddRequestApprover(_ context.Context, a *models.Approver) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.approvers {
		if existing.ID == a.ID {
			return approvalErrors.ErrConflict
		}
		if existing.RequestID != nil && a.RequestID != nil && *existing.RequestID == *a.RequestID && existing.UserID == a.UserID {
			return approvalErrors.ErrConflict
		}
	}
	a.CreatedAt, a.UpdatedAt = time.Now(), time.Now()
	s.approvers[a.ID] = *a
	return nil
}

func (s *Store) RecordDecision(_ context.Context, requestID, approverID string, d repositories.DecisionRecord) (*models.Approver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.approvers[approverID]
	if !ok || a.RequestID == nil || *a.RequestID != requestID {
		return nil, approvalErrors.ErrRecordNotFound
	}
	if a.Decided() {
		return nil, approvalErrors.ErrConflict
	}
	req, ok := s.requests[requestID]
	if !ok {
		return nil, approvalErrors.ErrRecordNotFound
	}

	at := d.At
	if req.Status == models.StatusPending {
		req.VoteSeq++
		req.Version++
		req.UpdatedAt = at
		s.requests[requestID] = req
		a.DecisionSeq = req.VoteSeq
	} else {
		a.Late = true
	}
	a.Decision = d.Decision
	a.Justification = d.Justification
	a.Attachments = pq.StringArray(slices.Clone(d.Attachments))
	a.DecidedAt = &at
	a.UpdatedAt = at
	s.approvers[approverID] = a
	return &a, nil
}

func (s *Store) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, approvalErrors.ErrRecordNotFound
	}
	return &u, nil
}

func (s *Store) SaveUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[u.ID] = *u
	return nil
}

func (s *Store) UsersWithProfile(_ context.Context, profile string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []models.User
	for _, u := range s.users {
		if u.Active && slices.Contains(u.Profiles, profile) {
			list = append(list, u)
		}
	}
	sort.Slice(list, func(i, j int) bool { return strings.Compare(list[i].ID, list[j].ID) < 0 })
	return list, nil
}

func sortApprovers(list []models.Approver) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
