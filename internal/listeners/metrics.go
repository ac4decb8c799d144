package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ratehub/internal/cache"
	"ratehub/internal/events"
	"ratehub/internal/metrics"
	"ratehub/internal/repository"
)

// MetricsListener rebuilds the provider's denormalized statistics after
// every rating event and persists the fresh snapshot.
type MetricsListener struct {
	aggregator  *metrics.Aggregator
	providers   repository.ProviderRepository
	invalidator *cache.Invalidator
	log         *zap.Logger
}

func NewMetricsListener(aggregator *metrics.Aggregator, providers repository.ProviderRepository, invalidator *cache.Invalidator, log *zap.Logger) *MetricsListener {
	return &MetricsListener{aggregator: aggregator, providers: providers, invalidator: invalidator, log: log}
}

func (l *MetricsListener) Name() string { return "metrics_recompute" }

func (l *MetricsListener) Kinds() []events.Kind { return events.AllKinds }

func (l *MetricsListener) Handle(ctx context.Context, ev *events.RatingEvent) error {
	snapshot, err := l.aggregator.Recompute(ctx, ev.ProviderID)
	if err != nil {
		return fmt.Errorf("metrics recompute for provider %d: %v: %w", ev.ProviderID, err, events.ErrPersistence)
	}

	if err := l.providers.UpdateMetrics(ctx, ev.ProviderID, snapshot); err != nil {
		return fmt.Errorf("metrics write for provider %d: %v: %w", ev.ProviderID, err, events.ErrPersistence)
	}

	l.log.Info("provider metrics rebuilt",
		zap.Int64("provider_id", ev.ProviderID),
		zap.Int64("total_ratings", snapshot.TotalRatings),
		zap.Float64("average_rating", snapshot.AverageRating))

	l.invalidator.Invalidate(ctx, ev.ProviderID)
	return nil
}
