package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"critical-approve/internal/models"
	"critical-approve/internal/repositories/memory"
	"critical-approve/internal/services"
	"critical-approve/pkg/approvalErrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapCache – PolicyCache backed by a map, counting hits
type mapCache struct {
	mu       sync.Mutex
	policies map[string]models.ActionType
	hits     int
}

func newMapCache() *mapCache {
	return &mapCache{policies: make(map[string]models.ActionType)}
}

func (c *mapCache) Get(_ context.Context, id string) (*models.ActionType, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	at, ok := c.policies[id]
	if !ok {
		return nil, services.ErrCacheMiss
	}
	c.hits++
	return &at, nil
}

func (c *mapCache) Set(_ context.Context, at *models.ActionType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policies[at.ID] = *at
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.policies, id)
	return nil
}

func validInput(id string) services.ActionTypeInput {
	return services.ActionTypeInput{
		ID:                 id,
		Name:               "Suspensão de pagamento",
		Strategy:           models.StrategyMajority,
		MinApprovers:       3,
		Supervisors:        []string{"sup-1", " sup-1 ", ""},
		MaxEscalations:     2,
		EscalationInterval: 12 * time.Hour,
	}
}

func TestRegistry_RegisterActionType(t *testing.T) {
	ctx := context.Background()
	r := services.NewRegistry(memory.New(), nil, quietLog())

	t.Run("registers an active policy", func(t *testing.T) {
		in := validInput("suspensao_pagamento")
		in.AutoApprovalProfiles = []string{"Diretor", "diretor", " auditor "}

		at, err := r.RegisterActionType(ctx, in)
		require.NoError(t, err)
		assert.True(t, at.Active())
		assert.Equal(t, []string{"diretor", "auditor"}, []string(at.AutoApprovalProfiles))
		assert.Equal(t, []string{"sup-1"}, []string(at.Supervisors))
		assert.True(t, at.HasEscalationPolicy())
	})

	t.Run("duplicate id is a validation error", func(t *testing.T) {
		_, err := r.RegisterActionType(ctx, validInput("suspensao_pagamento"))
		assert.ErrorIs(t, err, approvalErrors.ErrValidation)
	})

	invalid := map[string]func(*services.ActionTypeInput){
		"empty id":          func(in *services.ActionTypeInput) { in.ID = "" },
		"id with spaces":    func(in *services.ActionTypeInput) { in.ID = "Suspensão Pagamento" },
		"empty name":        func(in *services.ActionTypeInput) { in.Name = " " },
		"unknown strategy":  func(in *services.ActionTypeInput) { in.Strategy = "unanime" },
		"zero approvers":    func(in *services.ActionTypeInput) { in.MinApprovers = 0 },
		"bad profile":       func(in *services.ActionTypeInput) { in.AutoApprovalProfiles = []string{"chefe de setor"} },
		"negative interval": func(in *services.ActionTypeInput) { in.EscalationInterval = -time.Minute },
	}
	for name, mutate := range invalid {
		t.Run(name, func(t *testing.T) {
			in := validInput("outra_acao")
			mutate(&in)
			_, err := r.RegisterActionType(ctx, in)
			assert.ErrorIs(t, err, approvalErrors.ErrValidation)
		})
	}
}

func TestRegistry_PolicyCache(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	r := services.NewRegistry(memory.New(), cache, quietLog())

	_, err := r.RegisterActionType(ctx, validInput("suspensao_pagamento"))
	require.NoError(t, err)

	at, err := r.GetPolicy(ctx, "suspensao_pagamento")
	require.NoError(t, err)
	assert.Zero(t, cache.hits)

	_, err = r.GetPolicy(ctx, "suspensao_pagamento")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	require.NoError(t, r.Deactivate(ctx, at.ID))
	at, err = r.GetPolicy(ctx, at.ID)
	require.NoError(t, err)
	assert.False(t, at.Active())
	assert.Equal(t, 1, cache.hits)

	_, err = r.GetPolicy(ctx, "inexistente")
	assert.ErrorIs(t, err, approvalErrors.ErrActionTypeNotFound)
}

func TestRegistry_UpdatePolicy(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	r := services.NewRegistry(store, nil, quietLog())

	_, err := r.RegisterActionType(ctx, validInput("suspensao_pagamento"))
	require.NoError(t, err)

	in := validInput("ignored")
	in.Strategy = models.StrategySimple
	in.MinApprovers = 1
	updated, err := r.UpdatePolicy(ctx, "suspensao_pagamento", in)
	require.NoError(t, err)
	assert.Equal(t, "suspensao_pagamento", updated.ID)
	assert.Equal(t, models.StrategySimple, updated.Strategy)

	require.NoError(t, store.CreateRequest(ctx, &models.ApprovalRequest{
		ID:           "req-1",
		Code:         "APR-1",
		ActionTypeID: "suspensao_pagamento",
		Status:       models.StatusPending,
	}, nil))
	_, err = r.UpdatePolicy(ctx, "suspensao_pagamento", validInput("suspensao_pagamento"))
	assert.ErrorIs(t, err, approvalErrors.ErrActionTypeInUse)

	_, err = r.UpdatePolicy(ctx, "inexistente", validInput("inexistente"))
	assert.ErrorIs(t, err, approvalErrors.ErrNotFound)
}

func TestRegistry_StandingApprovers(t *testing.T) {
	ctx := context.Background()
	r := services.NewRegistry(memory.New(), nil, quietLog())
	_, err := r.RegisterActionType(ctx, validInput("suspensao_pagamento"))
	require.NoError(t, err)

	ana, err := r.AssignStandingApprover(ctx, "suspensao_pagamento", services.Assignee{UserID: "ana"})
	require.NoError(t, err)
	_, err = r.AssignStandingApprover(ctx, "suspensao_pagamento", services.Assignee{Profile: "Gestor"})
	require.NoError(t, err)

	_, err = r.AssignStandingApprover(ctx, "suspensao_pagamento", services.Assignee{UserID: "ana"})
	assert.ErrorIs(t, err, approvalErrors.ErrAlreadyAssigned)
	_, err = r.AssignStandingApprover(ctx, "suspensao_pagamento", services.Assignee{UserID: "ana", Profile: "gestor"})
	assert.ErrorIs(t, err, approvalErrors.ErrValidation)
	_, err = r.AssignStandingApprover(ctx, "inexistente", services.Assignee{UserID: "ana"})
	assert.ErrorIs(t, err, approvalErrors.ErrNotFound)

	list, err := r.StandingApprovers(ctx, "suspensao_pagamento")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, r.DeactivateStandingApprover(ctx, ana.ID))
	list, err = r.StandingApprovers(ctx, "suspensao_pagamento")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "gestor", list[0].Profile)

	assert.ErrorIs(t, r.DeactivateStandingApprover(ctx, "nope"), approvalErrors.ErrApproverNotFound)
}
