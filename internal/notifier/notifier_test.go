package notifier_test

//go:generate mockgen -source=notifier.go -destination=mocks/mocks.go -package=mocks Notifier

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"critical-approve/internal/notifier"
	"critical-approve/internal/notifier/mocks"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestDispatcher_Send(t *testing.T) {
	ctrl := gomock.NewController(t)
	n := mocks.NewMockNotifier(ctrl)
	d := notifier.NewDispatcher(n, time.Second, quietLog())
	data := notifier.Data{Code: "APR-1"}

	t.Run("delivers to every user and counts failures", func(t *testing.T) {
		n.EXPECT().Notify(gomock.Any(), "ana", notifier.TemplateReminder, data).Return(nil)
		n.EXPECT().Notify(gomock.Any(), "bruno", notifier.TemplateReminder, data).Return(errors.New("offline"))
		n.EXPECT().Notify(gomock.Any(), "carla", notifier.TemplateReminder, data).Return(nil)

		failed := d.Send(context.Background(), []string{"ana", "bruno", "carla"}, notifier.TemplateReminder, data)
		assert.Equal(t, 1, failed)
	})

	t.Run("each delivery carries a deadline", func(t *testing.T) {
		n.EXPECT().Notify(gomock.Any(), "ana", notifier.TemplateExpired, data).
			DoAndReturn(func(ctx context.Context, _, _ string, _ notifier.Data) error {
				_, ok := ctx.Deadline()
				assert.True(t, ok)
				return nil
			})

		assert.Zero(t, d.Send(context.Background(), []string{"ana"}, notifier.TemplateExpired, data))
	})
}

func TestDispatcher_NilIsNoop(t *testing.T) {
	var d *notifier.Dispatcher
	assert.Zero(t, d.Send(context.Background(), []string{"ana"}, notifier.TemplateResolved, notifier.Data{}))
}

func TestRender(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	deadline := now.Add(26 * time.Hour)
	d := notifier.Data{
		Code:          "APR-20250101-100000-ABC123",
		ActionType:    "suspensao_beneficio",
		RequesterName: "Maria",
		Justification: "fraude confirmada",
		Status:        "approved",
		Reason:        "timeout",
		Deadline:      &deadline,
		Now:           now,
	}

	assert.Contains(t, notifier.Render(notifier.TemplateNewRequest, d), "Prazo: 02 jan 12:00")
	assert.Contains(t, notifier.Render(notifier.TemplateReminder, d), "tempo restante: 1 dia 2 horas")
	assert.Contains(t, notifier.Render(notifier.TemplateResolved, d), "\"approved\"")
	assert.Contains(t, notifier.Render(notifier.TemplateExecutionFailed, d), "timeout")
	assert.Contains(t, notifier.Render("unknown", d), d.Code)

	assert.True(t, notifier.Decidable(notifier.TemplateEscalation))
	assert.False(t, notifier.Decidable(notifier.TemplateExpired))
}

func TestLogNotifier(t *testing.T) {
	n := notifier.NewLogNotifier(quietLog())
	assert.NoError(t, n.Notify(context.Background(), "ana", notifier.TemplateNewRequest, notifier.Data{Code: "APR-1"}))
}
