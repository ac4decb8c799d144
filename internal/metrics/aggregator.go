// Package metrics rebuilds the denormalized rating statistics stored on a
// provider record. Recomputation always starts from the rating rows; event
// delivery is at-least-once and unordered, so incremental deltas would
// drift. Recompute-from-source is idempotent and convergent.
package metrics

import (
	"context"
	"math"

	"ratehub/internal/models"
)

// CategoryStat holds the per-category slice of the snapshot.
type CategoryStat struct {
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

// ProviderMetricsSnapshot is the full set of derived statistics for one
// provider, always recomputable from the rating rows.
type ProviderMetricsSnapshot struct {
	ProviderID               int64                   `json:"provider_id"`
	TotalRatings             int64                   `json:"total_ratings"`
	AverageRating            float64                 `json:"average_rating"`
	RecommendationPercentage float64                 `json:"recommendation_percentage"`
	Categories               map[string]CategoryStat `json:"categories,omitempty"`
	VerifiedCount            int64                   `json:"verified_count"`
	RejectedCount            int64                   `json:"rejected_count"`
	FlaggedCount             int64                   `json:"flagged_count"`
}

// Store is the read side of the record store the aggregator needs.
type Store interface {
	GetApprovedByProvider(ctx context.Context, providerID int64) ([]models.Rating, error)
	CountByProviderAndStatus(ctx context.Context, providerID int64, status string) (int64, error)
}

// Aggregator recomputes provider metrics from scratch.
type Aggregator struct {
	store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// Recompute rebuilds the snapshot for a provider. The per-category stats
// cover every category present among the approved ratings, not just the one
// an event was about: the snapshot is written whole, so a partial map would
// erase categories the triggering event did not touch.
func (a *Aggregator) Recompute(ctx context.Context, providerID int64) (*ProviderMetricsSnapshot, error) {
	approved, err := a.store.GetApprovedByProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	snap := &ProviderMetricsSnapshot{
		ProviderID: providerID,
		Categories: make(map[string]CategoryStat),
	}
	snap.TotalRatings = int64(len(approved))

	var sum, recommended int64
	catSums := make(map[string]int64)
	for _, r := range approved {
		sum += int64(r.Rating)
		if r.WouldRecommend {
			recommended++
		}
		if r.Category != "" {
			stat := snap.Categories[r.Category]
			stat.Count++
			snap.Categories[r.Category] = stat
			catSums[r.Category] += int64(r.Rating)
		}
	}

	if snap.TotalRatings > 0 {
		snap.AverageRating = round2(float64(sum) / float64(snap.TotalRatings))
		snap.RecommendationPercentage = round2(100 * float64(recommended) / float64(snap.TotalRatings))
	}
	for cat, stat := range snap.Categories {
		stat.Average = round2(float64(catSums[cat]) / float64(stat.Count))
		snap.Categories[cat] = stat
	}

	for status, target := range map[string]*int64{
		models.RatingStatusVerified: &snap.VerifiedCount,
		models.RatingStatusRejected: &snap.RejectedCount,
		models.RatingStatusFlagged:  &snap.FlaggedCount,
	} {
		count, err := a.store.CountByProviderAndStatus(ctx, providerID, status)
		if err != nil {
			return nil, err
		}
		*target = count
	}

	return snap, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
