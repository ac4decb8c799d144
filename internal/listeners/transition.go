// Package listeners contains the independent reactions to rating events.
// Every listener is idempotent under at-least-once redelivery: it
// recomputes and upserts rather than incrementing, and transitions to a
// target status rather than toggling.
package listeners

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ratehub/internal/cache"
	"ratehub/internal/events"
	"ratehub/internal/models"
	"ratehub/internal/moderation"
)

// StatusStore is the slice of the record store the transition listener
// writes through.
type StatusStore interface {
	UpdateStatus(ctx context.Context, id int64, status, reason string, at time.Time) error
}

// StatusListener applies the moderation verdict to created and updated
// ratings.
type StatusListener struct {
	classifier  *moderation.Classifier
	store       StatusStore
	invalidator *cache.Invalidator
	log         *zap.Logger
}

func NewStatusListener(classifier *moderation.Classifier, store StatusStore, invalidator *cache.Invalidator, log *zap.Logger) *StatusListener {
	return &StatusListener{classifier: classifier, store: store, invalidator: invalidator, log: log}
}

func (l *StatusListener) Name() string { return "status_transition" }

func (l *StatusListener) Kinds() []events.Kind {
	return []events.Kind{events.KindCreated, events.KindUpdated}
}

func (l *StatusListener) Handle(ctx context.Context, ev *events.RatingEvent) error {
	verdict := l.classifier.Classify(ctx, ev.Snapshot, ev.UserID, ev.RatingID)

	var status string
	switch {
	case verdict.Decision == moderation.RequireModeration:
		// Content changed or failed a check: flag for review regardless of
		// the prior status.
		status = models.RatingStatusFlagged
	case ev.Kind == events.KindCreated:
		status = models.RatingStatusApproved
	default:
		// Updated + AutoApprove: leave the current status alone. A manually
		// rejected rating must not be silently re-approved.
		l.log.Debug("update passed moderation, no transition",
			zap.Int64("rating_id", ev.RatingID))
		return nil
	}

	if err := l.store.UpdateStatus(ctx, ev.RatingID, status, verdict.Reason, time.Now().UTC()); err != nil {
		return fmt.Errorf("status update for rating %d: %v: %w", ev.RatingID, err, events.ErrPersistence)
	}

	l.log.Info("rating transitioned",
		zap.Int64("rating_id", ev.RatingID),
		zap.String("status", status),
		zap.String("reason", verdict.Reason))

	// Only after the authoritative write succeeded.
	l.invalidator.Invalidate(ctx, ev.ProviderID)
	return nil
}
