package notifier

import (
	"context"

	"github.com/hako/durafmt"
	"github.com/sirupsen/logrus"
)

// LogNotifier – used when no bot token is configured; writes notifications to the log
type LogNotifier struct {
	log *logrus.Entry
}

func NewLogNotifier(log *logrus.Entry) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, userID, template string, data Data) error {
	fields := logrus.Fields{
		"user":     userID,
		"template": template,
		"code":     data.Code,
	}
	if data.Deadline != nil && data.Deadline.After(data.Now) {
		fields["time_left"] = durafmt.Parse(data.Deadline.Sub(data.Now)).LimitFirstN(2).String()
	}
	n.log.WithFields(fields).Info(Render(template, data))
	return nil
}
