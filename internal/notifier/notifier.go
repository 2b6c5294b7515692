package notifier

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	TemplateNewRequest      = "new_request"
	TemplateReminder        = "reminder"
	TemplateEscalation      = "escalation"
	TemplateResolved        = "resolved"
	TemplateExecuted        = "executed"
	TemplateExecutionFailed = "execution_failed"
	TemplateExpired         = "expired"
)

// Data – template context; the request code is what users reference in the UI
type Data struct {
	Code          string
	ActionType    string
	RequesterName string
	Justification string
	Status        string
	Reason        string
	Deadline      *time.Time
	Now           time.Time
}

// Notifier – outbound notification collaborator
type Notifier interface {
	Notify(ctx context.Context, userID, template string, data Data) error
}

// Dispatcher – fire-and-forget facade: every delivery gets its own timeout and failures are only logged
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	log      *logrus.Entry
}

func NewDispatcher(n Notifier, timeout time.Duration, log *logrus.Entry) *Dispatcher {
	return &Dispatcher{notifier: n, timeout: timeout, log: log}
}

// Send – delivers template to every user, returns the number of failed deliveries
func (d *Dispatcher) Send(ctx context.Context, userIDs []string, template string, data Data) int {
	if d == nil || d.notifier == nil {
		return 0
	}

	failed := 0
	for _, userID := range userIDs {
		if err := d.sendOne(ctx, userID, template, data); err != nil {
			failed++
			d.log.WithFields(logrus.Fields{
				"user":     userID,
				"template": template,
				"code":     data.Code,
			}).Errorf("notification failed: %v", err)
		}
	}
	return failed
}

func (d *Dispatcher) sendOne(ctx context.Context, userID, template string, data Data) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	return d.notifier.Notify(ctx, userID, template, data)
}
