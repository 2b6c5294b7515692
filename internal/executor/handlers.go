package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"critical-approve/pkg/approvalErrors"
)

// Invoker – the domain collaborator that actually performs a gated operation
type Invoker interface {
	Invoke(ctx context.Context, method string, payload []byte) ([]byte, error)
}

// InvokerFunc – adapter to use an ordinary function as an Invoker
type InvokerFunc func(ctx context.Context, method string, payload []byte) ([]byte, error)

func (f InvokerFunc) Invoke(ctx context.Context, method string, payload []byte) ([]byte, error) {
	return f(ctx, method, payload)
}

// Command – a deferred operation's parameters
type Command interface {
	Validate() error
}

type Handler interface {
	Validate(payload []byte) error
	Handle(ctx context.Context, payload []byte) ([]byte, error)
}

type typed[T Command] struct {
	method  string
	invoker Invoker
}

// Typed – handler that decodes the payload into T before passing the original bytes to the invoker
func Typed[T Command](invoker Invoker, method string) Handler {
	return typed[T]{method: method, invoker: invoker}
}

func (h typed[T]) decode(payload []byte) (T, error) {
	var cmd T

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cmd); err != nil {
		return cmd, fmt.Errorf("decode %s payload: %w", h.method, err)
	}
	if err := cmd.Validate(); err != nil {
		return cmd, fmt.Errorf("invalid %s payload: %w", h.method, err)
	}
	return cmd, nil
}

func (h typed[T]) Validate(payload []byte) error {
	_, err := h.decode(payload)
	return err
}

func (h typed[T]) Handle(ctx context.Context, payload []byte) ([]byte, error) {
	if _, err := h.decode(payload); err != nil {
		return nil, err
	}
	return h.invoker.Invoke(ctx, h.method, payload)
}

// Handlers – lookup table from execution method to handler
type Handlers struct {
	byMethod map[string]Handler
}

func NewHandlers() *Handlers {
	return &Handlers{byMethod: make(map[string]Handler)}
}

func (h *Handlers) Register(method string, handler Handler) {
	h.byMethod[method] = handler
}

func (h *Handlers) Lookup(method string) (Handler, error) {
	handler, ok := h.byMethod[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", approvalErrors.ErrUnknownExecutionMethod, method)
	}
	return handler, nil
}

func (h *Handlers) Methods() []string {
	methods := make([]string, 0, len(h.byMethod))
	for m := range h.byMethod {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

// DefaultHandlers – every critical action known to the benefits system
func DefaultHandlers(invoker Invoker) *Handlers {
	h := NewHandlers()
	h.Register(MethodCancelBenefit, Typed[CancelBenefit](invoker, MethodCancelBenefit))
	h.Register(MethodSuspendBenefit, Typed[SuspendBenefit](invoker, MethodSuspendBenefit))
	h.Register(MethodSuspendPayment, Typed[SuspendPayment](invoker, MethodSuspendPayment))
	h.Register(MethodCancelPayment, Typed[CancelPayment](invoker, MethodCancelPayment))
	h.Register(MethodBlockUser, Typed[BlockUser](invoker, MethodBlockUser))
	h.Register(MethodEraseCitizenData, Typed[EraseCitizenData](invoker, MethodEraseCitizenData))
	return h
}
