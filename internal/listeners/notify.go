package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ratehub/internal/events"
	"ratehub/internal/notify"
)

// NotificationListener fans a rating event out to its recipients. Delivery
// failures are logged per recipient and never escalate: notifications are
// not retried by this pipeline.
type NotificationListener struct {
	router *notify.Router
	log    *zap.Logger
}

func NewNotificationListener(router *notify.Router, log *zap.Logger) *NotificationListener {
	return &NotificationListener{router: router, log: log}
}

func (l *NotificationListener) Name() string { return "notification" }

func (l *NotificationListener) Kinds() []events.Kind { return events.AllKinds }

func (l *NotificationListener) Handle(ctx context.Context, ev *events.RatingEvent) error {
	results := l.router.RouteAndDispatch(ctx, ev)

	sent := 0
	for _, res := range results {
		if res.Err == nil {
			sent++
		}
	}
	l.log.Debug("notifications dispatched",
		zap.Int64("rating_id", ev.RatingID),
		zap.Int("sent", sent),
		zap.Int("attempted", len(results)))

	// An interrupted fan-out counts as a failure for this listener. The
	// error chain stops here: the event must not be redelivered for it.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("notification fan-out interrupted after %d of %d dispatches: %v", sent, len(results), ctxErr)
	}
	return nil
}
