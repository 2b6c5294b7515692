package executor_test

//go:generate mockgen -destination=mocks/mocks.go -package=mocks critical-approve/internal/executor Invoker

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"critical-approve/internal/executor"
	"critical-approve/internal/executor/mocks"
	"critical-approve/internal/metrics"
	"critical-approve/internal/models"
	"critical-approve/internal/repositories/memory"
	"critical-approve/pkg/approvalErrors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const payload = `{"beneficio_id":"B-77","motivo":"fraude"}`

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// approvedRequest stores a request and moves it to approved, the only state Execute accepts
func approvedRequest(t *testing.T, store *memory.Store, method, body string) *models.ApprovalRequest {
	t.Helper()
	ctx := context.Background()

	req := &models.ApprovalRequest{
		ID:              "req-1",
		Code:            "APR-20250101-100000-ABC123",
		ActionTypeID:    "cancelamento_beneficio",
		RequesterID:     "maria",
		Justification:   "fraude confirmada",
		ActionPayload:   []byte(body),
		ExecutionMethod: method,
		Status:          models.StatusPending,
	}
	require.NoError(t, store.CreateRequest(ctx, req, nil))

	approved, err := store.TransitionStatus(ctx, statusChange(req, models.StatusApproved))
	require.NoError(t, err)
	return approved
}

func TestExecutor_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("success records executed with the handler result", func(t *testing.T) {
		store := memory.New()
		ctrl := gomock.NewController(t)
		invoker := mocks.NewMockInvoker(ctrl)
		m := metrics.New(prometheus.NewRegistry())
		exec := executor.New(store, executor.DefaultHandlers(invoker), time.Second,
			executor.WithMetrics(m), executor.WithLogger(quietLog()))

		req := approvedRequest(t, store, executor.MethodCancelBenefit, payload)
		invoker.EXPECT().
			Invoke(gomock.Any(), executor.MethodCancelBenefit, []byte(payload)).
			Return([]byte(`{"ok":true}`), nil)

		res, err := exec.Execute(ctx, req)
		require.NoError(t, err)
		assert.NoError(t, res.Err)
		assert.Equal(t, models.StatusExecuted, res.Request.Status)
		assert.Equal(t, []byte(`{"ok":true}`), res.Request.ExecutionResult)
		assert.NotNil(t, res.Request.ExecutedAt)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Executions.WithLabelValues(executor.MethodCancelBenefit, "executed")))

		transitions, err := store.ListTransitions(ctx, req.ID)
		require.NoError(t, err)
		last := transitions[len(transitions)-1]
		assert.Equal(t, models.SystemActor, last.Actor)
		assert.Equal(t, models.StatusExecuted, last.ToStatus)
	})

	t.Run("handler failure records execution_error and is not retried", func(t *testing.T) {
		store := memory.New()
		ctrl := gomock.NewController(t)
		invoker := mocks.NewMockInvoker(ctrl)
		exec := executor.New(store, executor.DefaultHandlers(invoker), time.Second, executor.WithLogger(quietLog()))

		req := approvedRequest(t, store, executor.MethodCancelBenefit, payload)
		invoker.EXPECT().Invoke(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("benefit already cancelled")).
			Times(1)

		res, err := exec.Execute(ctx, req)
		require.NoError(t, err)
		assert.ErrorIs(t, res.Err, approvalErrors.ErrExecution)
		assert.Equal(t, models.StatusExecutionError, res.Request.Status)
		assert.Equal(t, "benefit already cancelled", res.Request.ExecutionError)
	})

	t.Run("slow handler times out", func(t *testing.T) {
		store := memory.New()
		ctrl := gomock.NewController(t)
		invoker := mocks.NewMockInvoker(ctrl)
		exec := executor.New(store, executor.DefaultHandlers(invoker), 20*time.Millisecond, executor.WithLogger(quietLog()))

		req := approvedRequest(t, store, executor.MethodCancelBenefit, payload)
		invoker.EXPECT().Invoke(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ string, _ []byte) ([]byte, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			})

		res, err := exec.Execute(ctx, req)
		require.NoError(t, err)
		assert.ErrorIs(t, res.Err, approvalErrors.ErrExecutionTimeout)
		assert.Equal(t, models.StatusExecutionError, res.Request.Status)
	})

	t.Run("caller cancellation does not interrupt the operation", func(t *testing.T) {
		store := memory.New()
		ctrl := gomock.NewController(t)
		invoker := mocks.NewMockInvoker(ctrl)
		exec := executor.New(store, executor.DefaultHandlers(invoker), time.Second, executor.WithLogger(quietLog()))

		req := approvedRequest(t, store, executor.MethodCancelBenefit, payload)
		callerCtx, cancel := context.WithCancel(ctx)
		invoker.EXPECT().Invoke(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ string, _ []byte) ([]byte, error) {
				cancel()
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(50 * time.Millisecond):
					return []byte(`{"ok":true}`), nil
				}
			})

		res, err := exec.Execute(callerCtx, req)
		require.NoError(t, err)
		assert.NoError(t, res.Err)
		assert.Equal(t, models.StatusExecuted, res.Request.Status)
	})

	t.Run("unknown method ends in execution_error", func(t *testing.T) {
		store := memory.New()
		exec := executor.New(store, executor.NewHandlers(), time.Second, executor.WithLogger(quietLog()))

		req := approvedRequest(t, store, "beneficio.reativar", payload)
		res, err := exec.Execute(ctx, req)
		require.NoError(t, err)
		assert.ErrorIs(t, res.Err, approvalErrors.ErrUnknownExecutionMethod)
		assert.Equal(t, models.StatusExecutionError, res.Request.Status)
	})

	t.Run("rejects requests that are not approved", func(t *testing.T) {
		store := memory.New()
		exec := executor.New(store, executor.NewHandlers(), time.Second, executor.WithLogger(quietLog()))

		_, err := exec.Execute(ctx, &models.ApprovalRequest{Code: "APR-X", Status: models.StatusPending})
		assert.ErrorIs(t, err, approvalErrors.ErrState)
	})
}

func TestExecutor_Validate(t *testing.T) {
	exec := executor.New(memory.New(), executor.DefaultHandlers(nil), time.Second)

	tests := []struct {
		name    string
		method  string
		payload string
		wantErr error
	}{
		{name: "valid", method: executor.MethodCancelBenefit, payload: payload},
		{name: "unknown method", method: "beneficio.reativar", payload: payload, wantErr: approvalErrors.ErrValidation},
		{name: "unknown field", method: executor.MethodBlockUser, payload: `{"usuario_id":"u1","extra":1}`, wantErr: approvalErrors.ErrValidation},
		{name: "missing required", method: executor.MethodSuspendPayment, payload: `{"motivo":"x"}`, wantErr: approvalErrors.ErrValidation},
		{name: "not json", method: executor.MethodEraseCitizenData, payload: `cidadao`, wantErr: approvalErrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := exec.Validate(tt.method, []byte(tt.payload))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHandlers_Methods(t *testing.T) {
	assert.Equal(t, []string{
		executor.MethodCancelBenefit,
		executor.MethodSuspendBenefit,
		executor.MethodEraseCitizenData,
		executor.MethodCancelPayment,
		executor.MethodSuspendPayment,
		executor.MethodBlockUser,
	}, executor.DefaultHandlers(nil).Methods())
}

func TestHTTPInvoker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/" + executor.MethodBlockUser:
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			_, _ = w.Write(body)
		default:
			http.Error(w, "beneficio inexistente", http.StatusUnprocessableEntity)
		}
	}))
	defer srv.Close()

	inv := executor.NewHTTPInvoker(srv.URL+"/", srv.Client())

	out, err := inv.Invoke(context.Background(), executor.MethodBlockUser, []byte(`{"usuario_id":"u1"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"usuario_id":"u1"}`, string(out))

	_, err = inv.Invoke(context.Background(), executor.MethodCancelBenefit, []byte(`{}`))
	assert.ErrorContains(t, err, "status 422")
}
