package events_test

import (
	"context"
	"io"
	"testing"
	"time"

	"critical-approve/internal/events"
	"critical-approve/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition_Encode(t *testing.T) {
	at := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	t.Run("expiry without tally", func(t *testing.T) {
		data, err := events.Transition{
			RequestID:  "req-1",
			Code:       "APR-20250101-100000-ABC123",
			ActionType: "cancelamento_beneficio",
			From:       models.StatusPending,
			To:         models.StatusRejected,
			Actor:      models.SystemActor,
			Reason:     "expired",
			At:         at,
		}.Encode()
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"request_id": "req-1",
			"code": "APR-20250101-100000-ABC123",
			"action_type": "cancelamento_beneficio",
			"from": "pending",
			"to": "rejected",
			"actor": "system",
			"reason": "expired",
			"at": "2025-01-02T00:00:00Z"
		}`, string(data))
	})

	t.Run("resolution carries the tally", func(t *testing.T) {
		data, err := events.Transition{
			Code:  "APR-1",
			From:  models.StatusPending,
			To:    models.StatusApproved,
			Actor: "ana",
			Tally: &models.Tally{Strategy: models.StrategyMajority, Quorum: 2, Approvals: 2, Undecided: 1},
			At:    at,
		}.Encode()
		require.NoError(t, err)
		assert.Contains(t, string(data), `"approvals":2`)
	})
}

func TestNoop(t *testing.T) {
	assert.NoError(t, events.Noop{}.Publish(context.Background(), events.Transition{}))
}

func TestKafkaPublisher_PublishIsBounded(t *testing.T) {
	l := logrus.New()
	l.SetOutput(io.Discard)

	// nothing listens on port 1: the record can never be delivered
	p, err := events.NewKafkaPublisher([]string{"127.0.0.1:1"}, "aprovacoes.transicoes", 200*time.Millisecond, logrus.NewEntry(l))
	require.NoError(t, err)
	defer p.Close()

	started := time.Now()
	err = p.Publish(context.Background(), events.Transition{
		RequestID: "req-1",
		Code:      "APR-20250101-100000-ABC123",
		From:      models.StatusPending,
		To:        models.StatusApproved,
		At:        started,
	})
	assert.Error(t, err)
	assert.Less(t, time.Since(started), 5*time.Second)
}
