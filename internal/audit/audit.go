// Package audit appends structured records of listener reaction outcomes.
// Audit is observability, not a correctness dependency: a failed append is
// logged and forgotten.
package audit

import (
	"context"

	"go.uber.org/zap"

	"ratehub/internal/events"
	"ratehub/internal/models"
	"ratehub/internal/repository"
)

type Logger struct {
	repo repository.AuditRepository
	log  *zap.Logger
}

func NewLogger(repo repository.AuditRepository, log *zap.Logger) *Logger {
	return &Logger{repo: repo, log: log}
}

// Record appends one audit row per listener outcome. Implements the
// dispatcher's OutcomeSink.
func (l *Logger) Record(ctx context.Context, ev *events.RatingEvent, outcomes []events.Outcome) {
	for _, o := range outcomes {
		entry := &models.AuditLog{
			ActorID:    ev.ActorID,
			Action:     string(ev.Kind) + ":" + o.Listener,
			RatingID:   ev.RatingID,
			ProviderID: ev.ProviderID,
			Outcome:    "succeeded",
			IPAddress:  ev.ActorIP,
			UserAgent:  ev.UserAgent,
		}
		if o.Failed() {
			entry.Outcome = "failed"
			entry.Detail = o.Err.Error()
		}
		if err := l.repo.Create(ctx, entry); err != nil {
			l.log.Warn("audit append failed",
				zap.String("action", entry.Action),
				zap.Int64("rating_id", ev.RatingID),
				zap.Error(err))
		}
	}
}
