package executor

import (
	"errors"
	"time"
)

// Execution methods. Each one is bound to exactly one command type in DefaultHandlers.
const (
	MethodCancelBenefit    = "beneficio.cancelar"
	MethodSuspendBenefit   = "beneficio.suspender"
	MethodSuspendPayment   = "pagamento.suspender"
	MethodCancelPayment    = "pagamento.cancelar"
	MethodBlockUser        = "usuario.bloquear"
	MethodEraseCitizenData = "cidadao.excluir_dados"
)

type CancelBenefit struct {
	BenefitID string `json:"beneficio_id"`
	Reason    string `json:"motivo"`
}

func (c CancelBenefit) Validate() error {
	if c.BenefitID == "" {
		return errors.New("beneficio_id is required")
	}
	return nil
}

type SuspendBenefit struct {
	BenefitID string     `json:"beneficio_id"`
	Reason    string     `json:"motivo"`
	Until     *time.Time `json:"ate,omitempty"`
}

func (c SuspendBenefit) Validate() error {
	if c.BenefitID == "" {
		return errors.New("beneficio_id is required")
	}
	return nil
}

type SuspendPayment struct {
	PaymentID string     `json:"pagamento_id"`
	Reason    string     `json:"motivo"`
	Until     *time.Time `json:"ate,omitempty"`
}

func (c SuspendPayment) Validate() error {
	if c.PaymentID == "" {
		return errors.New("pagamento_id is required")
	}
	return nil
}

type CancelPayment struct {
	PaymentID string `json:"pagamento_id"`
	Reason    string `json:"motivo"`
}

func (c CancelPayment) Validate() error {
	if c.PaymentID == "" {
		return errors.New("pagamento_id is required")
	}
	return nil
}

type BlockUser struct {
	UserID string `json:"usuario_id"`
	Reason string `json:"motivo"`
}

func (c BlockUser) Validate() error {
	if c.UserID == "" {
		return errors.New("usuario_id is required")
	}
	return nil
}

type EraseCitizenData struct {
	CitizenID string   `json:"cidadao_id"`
	Fields    []string `json:"campos,omitempty"`
}

func (c EraseCitizenData) Validate() error {
	if c.CitizenID == "" {
		return errors.New("cidadao_id is required")
	}
	return nil
}
