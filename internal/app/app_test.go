package app

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"net/http/httptest"
	"testing"
	"time"

	"critical-approve/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoker(t *testing.T) {
	t.Run("without a domain endpoint every call fails", func(t *testing.T) {
		_, err := invoker(&config.Config{}).Invoke(context.Background(), "beneficio.cancelar", []byte(`{}`))
		assert.ErrorContains(t, err, "DOMAIN_INVOKER_URL")
	})

	t.Run("posts to the configured endpoint", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/beneficio.cancelar", r.URL.Path)
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer srv.Close()

		cfg := &config.Config{DomainInvokerURL: srv.URL, ExecutorTimeout: time.Second}
		out, err := invoker(cfg).Invoke(context.Background(), "beneficio.cancelar", []byte(`{}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(out))
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Scheduler:       config.Scheduler{Interval: time.Hour, ReminderWindow: time.Hour},
		NotifyTimeout:   time.Second,
		ExecutorTimeout: time.Second,
		OpsAddr:         "127.0.0.1:0",
	}
}

func TestRun_StopsSchedulerOnCancel(t *testing.T) {
	a, err := New(testConfig(), Deps{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	// Stop already ran inside Run; a second one is a no-op
	a.scheduler.Stop()
}

func TestNew_LoadsCatalog(t *testing.T) {
	cfg := testConfig()
	cfg.ActionTypesFile = filepath.Join(t.TempDir(), "acoes.yaml")

	_, err := New(cfg, Deps{})
	assert.ErrorContains(t, err, "read catalog")

	require.NoError(t, os.WriteFile(cfg.ActionTypesFile, []byte("action_types:\n  - id: bloqueio_usuario\n    name: Bloqueio\n    strategy: simple\n    min_approvers: 1\n"), 0o600))
	a, err := New(cfg, Deps{})
	require.NoError(t, err)
	require.NotNil(t, a.catalog)
	assert.Len(t, a.catalog.ActionTypes, 1)
}
