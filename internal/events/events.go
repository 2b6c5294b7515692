package events

import (
	"context"
	"encoding/json"
	"time"

	"critical-approve/internal/models"
)

// Transition – a status change of an approval request, as seen by external audit consumers
type Transition struct {
	RequestID  string               `json:"request_id"`
	Code       string               `json:"code"`
	ActionType string               `json:"action_type"`
	From       models.RequestStatus `json:"from"`
	To         models.RequestStatus `json:"to"`
	Actor      string               `json:"actor"`
	Reason     string               `json:"reason,omitempty"`
	Tally      *models.Tally        `json:"tally,omitempty"`
	At         time.Time            `json:"at"`
}

func (t Transition) Encode() ([]byte, error) {
	return json.Marshal(t)
}

// Publisher – best-effort sink for transition events. The relational transition log stays the source of truth.
type Publisher interface {
	Publish(ctx context.Context, t Transition) error
}

type Noop struct{}

func (Noop) Publish(context.Context, Transition) error { return nil }
