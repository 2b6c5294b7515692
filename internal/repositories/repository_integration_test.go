//go:build integration

package repositories_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"critical-approve/internal/models"
	"critical-approve/internal/repositories"
	"critical-approve/pkg/approvalErrors"
	"critical-approve/pkg/testutil/containers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type PostgresRepositorySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	repo     *repositories.Repository
	now      time.Time
}

func TestPostgresRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresRepositorySuite))
}

func (s *PostgresRepositorySuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.repo = repositories.New(s.postgres.DB)
}

func (s *PostgresRepositorySuite) SetupTest() {
	ctx := context.Background()
	s.now = time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.postgres.TruncateTables(ctx,
		"lembretes_aprovacao", "transicoes_aprovacao", "aprovadores",
		"solicitacoes_aprovacao", "acoes_aprovacao", "usuarios"))

	s.Require().NoError(s.repo.CreateActionType(ctx, &models.ActionType{
		ID:           "suspensao_beneficio",
		Name:         "Suspensão de benefício",
		Strategy:     models.StrategyMajority,
		MinApprovers: 3,
		Status:       models.ActionTypeActive,
	}))
}

func (s *PostgresRepositorySuite) newRequest(deadline *time.Time, approvers ...string) *models.ApprovalRequest {
	id := uuid.NewString()
	req := &models.ApprovalRequest{
		ID:              id,
		Code:            "APR-" + id[:8],
		ActionTypeID:    "suspensao_beneficio",
		RequesterID:     "maria",
		Justification:   "fraude confirmada",
		ActionPayload:   []byte{0x00, 0xff, '{'},
		ExecutionMethod: "beneficio.suspender",
		Status:          models.StatusPending,
		Deadline:        deadline,
	}

	slots := make([]models.Approver, 0, len(approvers))
	for _, user := range approvers {
		slots = append(slots, models.Approver{
			ID:        uuid.NewString(),
			RequestID: &req.ID,
			UserID:    user,
			Origin:    models.OriginStanding,
			Active:    true,
		})
	}
	s.Require().NoError(s.repo.CreateRequest(context.Background(), req, slots))
	return req
}

func (s *PostgresRepositorySuite) TestCreateAndLoad() {
	ctx := context.Background()
	req := s.newRequest(nil, "ana", "bruno")

	got, err := s.repo.GetRequestByCode(ctx, req.Code)
	s.Require().NoError(err)
	s.Equal(req.ID, got.ID)
	s.Equal([]byte{0x00, 0xff, '{'}, got.ActionPayload)

	exists, err := s.repo.CodeExists(ctx, req.Code)
	s.Require().NoError(err)
	s.True(exists)

	_, err = s.repo.GetRequest(ctx, uuid.NewString())
	s.ErrorIs(err, approvalErrors.ErrRecordNotFound)

	slots, err := s.repo.ListRequestApprovers(ctx, req.ID)
	s.Require().NoError(err)
	s.Len(slots, 2)

	s.Run("same user twice on a request conflicts", func() {
		err := s.repo.AddRequestApprover(ctx, &models.Approver{
			ID:        uuid.NewString(),
			RequestID: &req.ID,
			UserID:    "ana",
			Origin:    models.OriginAdHoc,
			Active:    true,
		})
		s.ErrorIs(err, approvalErrors.ErrConflict)
	})
}

// TestConcurrentTransitions verifies that racing writers on the same version produce exactly one transition.
func (s *PostgresRepositorySuite) TestConcurrentTransitions() {
	ctx := context.Background()
	req := s.newRequest(nil)
	const goroutines = 20

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			to := models.StatusApproved
			if i%2 == 0 {
				to = models.StatusRejected
			}
			_, err := s.repo.TransitionStatus(ctx, repositories.StatusChange{
				RequestID: req.ID,
				Version:   req.Version,
				From:      models.StatusPending,
				To:        to,
				Actor:     models.SystemActor,
				Tally:     models.Tally{Strategy: models.StrategyMajority, Quorum: 2, Approvals: 2},
				At:        s.now,
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, approvalErrors.ErrConflict):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), succeeded.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())

	got, err := s.repo.GetRequest(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(req.Version+1, got.Version)
	s.NotNil(got.ResolvedAt)

	transitions, err := s.repo.ListTransitions(ctx, req.ID)
	s.Require().NoError(err)
	s.Require().Len(transitions, 1)
	s.Equal(2, transitions[0].Tally.Data().Approvals)
}

func (s *PostgresRepositorySuite) TestTransitionOutsideStateMachine() {
	req := s.newRequest(nil)

	_, err := s.repo.TransitionStatus(context.Background(), repositories.StatusChange{
		RequestID: req.ID,
		From:      models.StatusPending,
		To:        models.StatusExecuted,
		At:        s.now,
	})
	s.ErrorIs(err, approvalErrors.ErrInvalidTransition)
}

func (s *PostgresRepositorySuite) TestRecordDecisionOnce() {
	ctx := context.Background()
	req := s.newRequest(nil, "ana")

	slot, err := s.repo.FindRequestApprover(ctx, req.ID, "ana")
	s.Require().NoError(err)

	record := repositories.DecisionRecord{Decision: models.DecisionApproved, Attachments: []string{"laudo.pdf"}, At: s.now}
	decided, err := s.repo.RecordDecision(ctx, req.ID, slot.ID, record)
	s.Require().NoError(err)
	s.Equal(int64(1), decided.DecisionSeq)
	s.False(decided.Late)
	s.Equal([]string{"laudo.pdf"}, []string(decided.Attachments))

	record.Decision = models.DecisionRejected
	_, err = s.repo.RecordDecision(ctx, req.ID, slot.ID, record)
	s.ErrorIs(err, approvalErrors.ErrConflict)

	got, err := s.repo.GetRequest(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), got.VoteSeq)
	s.Equal(req.Version+1, got.Version, "a vote invalidates readers of the previous version")
}

// Votes racing a transition: every vote committed after the resolved sequence ends late, and a
// transition prepared before a vote committed loses its compare-and-swap.
func (s *PostgresRepositorySuite) TestVotesAgainstTransition() {
	ctx := context.Background()
	users := []string{"ana", "bruno", "carla", "diego", "elisa", "fabio"}
	req := s.newRequest(nil, users...)

	record := func(user string) *models.Approver {
		slot, err := s.repo.FindRequestApprover(ctx, req.ID, user)
		s.Require().NoError(err)
		decided, err := s.repo.RecordDecision(ctx, req.ID, slot.ID,
			repositories.DecisionRecord{Decision: models.DecisionApproved, At: s.now})
		s.Require().NoError(err)
		return decided
	}
	record("ana")
	record("bruno")

	stale, err := s.repo.GetRequest(ctx, req.ID)
	s.Require().NoError(err)
	record("carla")

	change := repositories.StatusChange{
		RequestID:   req.ID,
		Version:     stale.Version,
		From:        models.StatusPending,
		To:          models.StatusApproved,
		Actor:       "bruno",
		Reason:      models.ResolutionDecision,
		Tally:       models.Tally{Approvals: 2},
		ResolvedSeq: 2,
		At:          s.now,
	}
	_, err = s.repo.TransitionStatus(ctx, change)
	s.ErrorIs(err, approvalErrors.ErrConflict)

	current, err := s.repo.GetRequest(ctx, req.ID)
	s.Require().NoError(err)
	change.Version = current.Version

	var wg sync.WaitGroup
	for _, user := range users[3:] {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slot, err := s.repo.FindRequestApprover(ctx, req.ID, user)
			if err != nil {
				s.T().Errorf("find %s: %v", user, err)
				return
			}
			_, err = s.repo.RecordDecision(ctx, req.ID, slot.ID,
				repositories.DecisionRecord{Decision: models.DecisionApproved, At: s.now})
			if err != nil {
				s.T().Errorf("vote %s: %v", user, err)
			}
		}()
	}
	resolved, err := s.repo.TransitionStatus(ctx, change)
	wg.Wait()

	final, getErr := s.repo.GetRequest(ctx, req.ID)
	s.Require().NoError(getErr)
	if errors.Is(err, approvalErrors.ErrConflict) {
		// a vote got in first; the request stays pending for its voter to resolve
		s.Equal(models.StatusPending, final.Status)
		return
	}
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, resolved.Status)
	s.Equal(int64(2), final.ResolvedSeq)
	s.Equal(models.ResolutionDecision, final.Resolution)

	slots, err := s.repo.ListRequestApprovers(ctx, req.ID)
	s.Require().NoError(err)
	for _, slot := range slots {
		s.Equal(slot.DecisionSeq == 0 || slot.DecisionSeq > 2, slot.Late, "slot of %s", slot.UserID)
	}
}

func (s *PostgresRepositorySuite) TestDueRequestsAndClaims() {
	ctx := context.Background()
	soon := s.now.Add(time.Hour)
	later := s.now.Add(72 * time.Hour)
	due := s.newRequest(&soon)
	s.newRequest(&later)
	s.newRequest(nil)

	list, err := s.repo.ListDueRequests(ctx, s.now.Add(24*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(due.ID, list[0].ID)

	s.Run("reminder once per window", func() {
		windowStart := soon.Add(-24 * time.Hour)
		claimed, err := s.repo.ClaimReminder(ctx, due.ID, windowStart, s.now, []string{"ana"})
		s.Require().NoError(err)
		s.True(claimed)

		claimed, err = s.repo.ClaimReminder(ctx, due.ID, windowStart, s.now.Add(time.Minute), []string{"ana"})
		s.Require().NoError(err)
		s.False(claimed)
	})

	s.Run("escalation guarded by the expected count", func() {
		claimed, err := s.repo.ClaimEscalation(ctx, due.ID, 0, s.now, []string{"chefe"})
		s.Require().NoError(err)
		s.True(claimed)

		claimed, err = s.repo.ClaimEscalation(ctx, due.ID, 0, s.now, []string{"chefe"})
		s.Require().NoError(err)
		s.False(claimed)

		reminders, err := s.repo.RemindersByRequest(ctx, due.ID)
		s.Require().NoError(err)
		s.Len(reminders, 2)
	})
}

func (s *PostgresRepositorySuite) TestUsersWithProfile() {
	ctx := context.Background()
	s.Require().NoError(s.repo.SaveUser(ctx, &models.User{ID: "ana", Profiles: []string{"gestor"}, Active: true}))
	s.Require().NoError(s.repo.SaveUser(ctx, &models.User{ID: "bruno", Profiles: []string{"gestor", "auditor"}, Active: true}))
	s.Require().NoError(s.repo.SaveUser(ctx, &models.User{ID: "carla", Profiles: []string{"gestor"}, Active: false}))

	users, err := s.repo.UsersWithProfile(ctx, "gestor")
	s.Require().NoError(err)
	s.Require().Len(users, 2)
	s.Equal("ana", users[0].ID)
	s.Equal("bruno", users[1].ID)

	s.Require().NoError(s.repo.SaveUser(ctx, &models.User{ID: "ana", Profiles: []string{"auditor"}, Active: true}))
	users, err = s.repo.UsersWithProfile(ctx, "gestor")
	s.Require().NoError(err)
	s.Len(users, 1)
}
