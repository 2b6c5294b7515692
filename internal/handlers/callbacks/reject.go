package callbacks

import (
	"context"
	"fmt"
	"strings"

	"critical-approve/internal/models"
)

// handleReject – a rejection needs a justification, so the next text message of the user completes it
func (h *Handler) handleReject(ctx context.Context, userID, code string) {
	if code == "" {
		return
	}
	h.mu.Lock()
	h.awaiting[userID] = code
	h.mu.Unlock()

	h.reply(ctx, userID, fmt.Sprintf("Envie a justificativa da rejeição da solicitação #%s.", code))
}

// AwaitingJustification – the user pressed reject and has not sent the justification yet
func (h *Handler) AwaitingJustification(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.awaiting[userID]
	return ok
}

// CompleteRejection – uses text as the justification of the pending rejection; false when none is pending
func (h *Handler) CompleteRejection(ctx context.Context, userID, text string) bool {
	text = strings.TrimSpace(text)

	h.mu.Lock()
	code, ok := h.awaiting[userID]
	if ok && text != "" {
		delete(h.awaiting, userID)
	}
	h.mu.Unlock()

	if !ok {
		return false
	}
	if text == "" {
		h.reply(ctx, userID, "A justificativa não pode ser vazia.")
		return true
	}

	h.decide(ctx, userID, code, models.DecisionRejected, text)
	return true
}

func (h *Handler) cancelRejection(ctx context.Context, userID string) {
	h.mu.Lock()
	code, ok := h.awaiting[userID]
	delete(h.awaiting, userID)
	h.mu.Unlock()

	if ok {
		h.reply(ctx, userID, fmt.Sprintf("A rejeição da solicitação #%s foi cancelada.", code))
		return
	}
	h.reply(ctx, userID, "Não há rejeição em andamento.")
}
