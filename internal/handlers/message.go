package handlers

import (
	"context"
	"fmt"
	"strings"

	"critical-approve/internal/handlers/callbacks"
	"critical-approve/internal/models"
	"critical-approve/internal/services"
	"critical-approve/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	statusPrefix = "/status_"
	cancelPrefix = "/cancelar_"
	mineCommand  = "/minhas"
)

const helpText = "Comandos disponíveis:\n" +
	"/minhas – suas solicitações pendentes\n" +
	"/status_<código> – situação de uma solicitação\n" +
	"/cancelar_<código> – cancela uma solicitação sua pendente"

type Approvals interface {
	GetByCode(ctx context.Context, code string) (*models.ApprovalRequest, error)
	Cancel(ctx context.Context, id string, actor models.Actor) (*models.ApprovalRequest, error)
	List(ctx context.Context, f services.Filter) (*services.Page, error)
}

// MessageHandler – NEW_MESSAGE events: text commands and rejection justifications
type MessageHandler struct {
	approvals Approvals
	callbacks *callbacks.Handler
	replier   callbacks.Replier
	log       *logrus.Entry
}

func NewMessageHandler(approvals Approvals, cb *callbacks.Handler, replier callbacks.Replier, log *logrus.Entry) *MessageHandler {
	return &MessageHandler{approvals: approvals, callbacks: cb, replier: replier, log: log}
}

func (h *MessageHandler) Handle(ctx context.Context, userID, text string) {
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, "/") && h.callbacks.CompleteRejection(ctx, userID, text) {
		return
	}

	switch {
	case text == callbacks.CancelRejection:
		h.callbacks.Handle(ctx, userID, text)
	case strings.HasPrefix(text, statusPrefix):
		h.status(ctx, userID, strings.TrimPrefix(text, statusPrefix))
	case strings.HasPrefix(text, cancelPrefix):
		h.cancel(ctx, userID, strings.TrimPrefix(text, cancelPrefix))
	case text == mineCommand:
		h.mine(ctx, userID)
	default:
		h.reply(ctx, userID, helpText)
	}
}

func (h *MessageHandler) status(ctx context.Context, userID, code string) {
	req, err := h.approvals.GetByCode(ctx, code)
	if err != nil {
		h.replyError(ctx, userID, err)
		return
	}

	text := fmt.Sprintf("Solicitação #%s (%s)\nSituação: %s\nSolicitante: %s", req.Code, req.ActionTypeID, req.Status, req.RequesterName)
	if req.Deadline != nil && req.Status == models.StatusPending {
		text += "\nPrazo: " + utils.FormatDate(*req.Deadline)
	}
	if req.ExecutionError != "" {
		text += "\nErro de execução: " + req.ExecutionError
	}
	h.reply(ctx, userID, text)
}

func (h *MessageHandler) cancel(ctx context.Context, userID, code string) {
	req, err := h.approvals.GetByCode(ctx, code)
	if err != nil {
		h.replyError(ctx, userID, err)
		return
	}
	if _, err := h.approvals.Cancel(ctx, req.ID, models.Actor{ID: userID}); err != nil {
		h.replyError(ctx, userID, err)
		return
	}
	h.reply(ctx, userID, fmt.Sprintf("A solicitação #%s foi cancelada.", code))
}

func (h *MessageHandler) mine(ctx context.Context, userID string) {
	page, err := h.approvals.List(ctx, services.Filter{RequesterID: userID, Status: models.StatusPending})
	if err != nil {
		h.replyError(ctx, userID, err)
		return
	}
	if len(page.Items) == 0 {
		h.reply(ctx, userID, "Você não tem solicitações pendentes.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Solicitações pendentes (%d):", page.Total)
	for _, req := range page.Items {
		fmt.Fprintf(&b, "\n#%s – %s", req.Code, req.ActionTypeID)
	}
	h.reply(ctx, userID, b.String())
}

func (h *MessageHandler) replyError(ctx context.Context, userID string, err error) {
	text := callbacks.ErrorText(err)
	if text == "" {
		h.log.WithField("user", userID).Errorf("command failed: %v", err)
		text = "Algo deu errado, tente novamente mais tarde."
	}
	h.reply(ctx, userID, text)
}

func (h *MessageHandler) reply(ctx context.Context, userID, text string) {
	if err := h.replier.Reply(ctx, userID, text); err != nil {
		h.log.WithField("user", userID).Errorf("failed to reply: %v", err)
	}
}
