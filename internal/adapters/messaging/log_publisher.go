package messaging

import (
	"context"

	"hr-loanengine/internal/core/domain"

	"github.com/sirupsen/logrus"
)

// LogPublisher writes loan events to the log; used when no broker is configured
type LogPublisher struct {
	log *logrus.Logger
}

// NewLogPublisher creates a log-only publisher
func NewLogPublisher(log *logrus.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

// Publish logs one line per event
func (p *LogPublisher) Publish(ctx context.Context, events ...domain.LoanEvent) error {
	for _, e := range events {
		entry := p.log.WithFields(logrus.Fields{
			"event":       e.Type,
			"event_id":    e.ID,
			"loan_id":     e.LoanID,
			"employee_id": e.EmployeeID,
			"level_hint":  e.Notification.Level,
		})
		if e.Amount != nil {
			entry = entry.WithField("amount", e.Amount.StringFixed(2))
		}
		switch e.Notification.Level {
		case domain.LevelError, domain.LevelWarning:
			entry.Warn(e.Notification.Title + ": " + e.Notification.Message)
		default:
			entry.Info(e.Notification.Title + ": " + e.Notification.Message)
		}
	}
	return nil
}

// Close is a no-op
func (p *LogPublisher) Close() error { return nil }
