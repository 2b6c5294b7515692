package callbacks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"critical-approve/internal/models"
	"critical-approve/internal/notifier"
	"critical-approve/internal/services"
	"critical-approve/pkg/approvalErrors"
	"github.com/sirupsen/logrus"
)

// CancelRejection – button data that abandons a pending rejection
const CancelRejection = "/reject_cancel"

type Approvals interface {
	GetByCode(ctx context.Context, code string) (*models.ApprovalRequest, error)
	CastDecision(ctx context.Context, in services.CastDecisionInput) (*services.DecisionResult, error)
}

// Replier – answers the user who pressed a button
type Replier interface {
	Reply(ctx context.Context, userID, text string) error
}

// Handler – approve/reject buttons attached to approver notifications
type Handler struct {
	approvals Approvals
	replier   Replier
	log       *logrus.Entry

	mu       sync.Mutex
	awaiting map[string]string // user id -> request code waiting for a rejection justification
}

func New(approvals Approvals, replier Replier, log *logrus.Entry) *Handler {
	return &Handler{
		approvals: approvals,
		replier:   replier,
		log:       log,
		awaiting:  make(map[string]string),
	}
}

// Handle – dispatches a CALLBACK_QUERY event
func (h *Handler) Handle(ctx context.Context, userID, data string) {
	switch {
	case data == CancelRejection:
		h.cancelRejection(ctx, userID)
	case strings.HasPrefix(data, notifier.ApprovePrefix):
		h.handleApprove(ctx, userID, strings.TrimPrefix(data, notifier.ApprovePrefix))
	case strings.HasPrefix(data, notifier.RejectPrefix):
		h.handleReject(ctx, userID, strings.TrimPrefix(data, notifier.RejectPrefix))
	default:
		h.log.WithField("user", userID).Debugf("unknown callback %q", data)
	}
}

func (h *Handler) decide(ctx context.Context, userID, code string, decision models.Decision, justification string) {
	req, err := h.approvals.GetByCode(ctx, code)
	if err != nil {
		h.replyError(ctx, userID, code, err)
		return
	}

	res, err := h.approvals.CastDecision(ctx, services.CastDecisionInput{
		RequestID:     req.ID,
		ApproverID:    userID,
		Decision:      decision,
		Justification: justification,
	})
	if err != nil {
		h.replyError(ctx, userID, code, err)
		return
	}

	h.reply(ctx, userID, resultText(code, res))
}

func resultText(code string, res *services.DecisionResult) string {
	switch {
	case res.Late:
		return fmt.Sprintf("Sua decisão foi registrada, mas a solicitação #%s já estava encerrada (%s).", code, res.Request.Status)
	case res.Resolved:
		return fmt.Sprintf("Decisão registrada. A solicitação #%s foi concluída: %s.", code, res.Request.Status)
	default:
		return fmt.Sprintf("Decisão registrada para a solicitação #%s. Aprovações: %d de %d.",
			code, res.Outcome.Tally.Approvals, res.Outcome.Tally.Quorum)
	}
}

func (h *Handler) replyError(ctx context.Context, userID, code string, err error) {
	text := ErrorText(err)
	if text == "" {
		h.log.WithFields(logrus.Fields{"user": userID, "code": code}).Errorf("decision failed: %v", err)
		text = "Não foi possível registrar a decisão, tente novamente mais tarde."
	}
	h.reply(ctx, userID, text)
}

func (h *Handler) reply(ctx context.Context, userID, text string) {
	if err := h.replier.Reply(ctx, userID, text); err != nil {
		h.log.WithField("user", userID).Errorf("failed to reply: %v", err)
	}
}

// ErrorText – user-facing text for expected errors, empty for unexpected ones
func ErrorText(err error) string {
	switch {
	case errors.Is(err, approvalErrors.ErrRequestNotFound):
		return "Solicitação não encontrada."
	case errors.Is(err, approvalErrors.ErrApproverNotFound):
		return "Você não é aprovador desta solicitação."
	case errors.Is(err, approvalErrors.ErrSelfApprovalNotAllowed):
		return "Você não pode decidir sobre a sua própria solicitação."
	case errors.Is(err, approvalErrors.ErrApproverInactive):
		return "Sua designação como aprovador foi desativada."
	case errors.Is(err, approvalErrors.ErrAlreadyDecided):
		return "Você já decidiu sobre esta solicitação."
	case errors.Is(err, approvalErrors.ErrForbidden):
		return "Você não tem acesso a esta solicitação."
	case errors.Is(err, approvalErrors.ErrInvalidState):
		return "Esta solicitação já não está pendente."
	case errors.Is(err, approvalErrors.ErrValidation):
		return "Dados inválidos: " + err.Error()
	}
	return ""
}
