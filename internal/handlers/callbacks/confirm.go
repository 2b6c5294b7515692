package callbacks

import (
	"context"

	"critical-approve/internal/models"
)

// handleApprove – approve button pressed
func (h *Handler) handleApprove(ctx context.Context, userID, code string) {
	h.decide(ctx, userID, code, models.DecisionApproved, "")
}
