package notifier

import (
	"fmt"

	"critical-approve/internal/utils"
)

// Render – user-facing text of a template
func Render(template string, d Data) string {
	switch template {
	case TemplateNewRequest:
		text := fmt.Sprintf("Você recebeu uma nova solicitação de aprovação #%s (%s) de %s.\nJustificativa: %s",
			d.Code, d.ActionType, d.RequesterName, d.Justification)
		if d.Deadline != nil {
			text += fmt.Sprintf("\nPrazo: %s", utils.FormatDate(*d.Deadline))
		}
		return text
	case TemplateReminder:
		text := fmt.Sprintf("Não esqueça de decidir a solicitação #%s (%s)", d.Code, d.ActionType)
		if d.Deadline != nil {
			text += fmt.Sprintf(", tempo restante: %s", utils.FormatRemaining(d.Deadline.Sub(d.Now)))
		}
		return text
	case TemplateEscalation:
		return fmt.Sprintf("A solicitação #%s (%s) de %s passou do prazo sem decisão e foi escalada para você.",
			d.Code, d.ActionType, d.RequesterName)
	case TemplateResolved:
		return fmt.Sprintf("A solicitação #%s (%s) foi concluída com o status \"%s\".", d.Code, d.ActionType, d.Status)
	case TemplateExecuted:
		return fmt.Sprintf("✅A ação da solicitação #%s (%s) foi executada.", d.Code, d.ActionType)
	case TemplateExecutionFailed:
		return fmt.Sprintf("❌A execução da solicitação #%s (%s) falhou: %s", d.Code, d.ActionType, d.Reason)
	case TemplateExpired:
		return fmt.Sprintf("A solicitação #%s (%s) expirou sem decisão e foi rejeitada.", d.Code, d.ActionType)
	}
	return fmt.Sprintf("Solicitação #%s: %s", d.Code, d.Status)
}

// Decidable – templates sent to approvers who still have to vote
func Decidable(template string) bool {
	return template == TemplateNewRequest || template == TemplateReminder || template == TemplateEscalation
}
