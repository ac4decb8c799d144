package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"ratehub/internal/metrics"
	"ratehub/internal/models"

	"gorm.io/gorm"
)

type ProviderRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Provider, error)
	UpdateMetrics(ctx context.Context, providerID int64, snapshot *metrics.ProviderMetricsSnapshot) error
}

type providerRepository struct {
	db *gorm.DB
}

func NewProviderRepository(db *gorm.DB) ProviderRepository {
	return &providerRepository{db: db}
}

func (r *providerRepository) GetByID(ctx context.Context, id int64) (*models.Provider, error) {
	var provider models.Provider
	err := r.db.WithContext(ctx).First(&provider, id).Error
	if err != nil {
		return nil, err
	}
	return &provider, nil
}

// UpdateMetrics writes a recomputed snapshot onto the provider row. The
// whole snapshot is written in one UPDATE, category metrics included, so a
// stale per-category entry can never survive a recomputation.
func (r *providerRepository) UpdateMetrics(ctx context.Context, providerID int64, snapshot *metrics.ProviderMetricsSnapshot) error {
	categories := snapshot.Categories
	if categories == nil {
		categories = map[string]metrics.CategoryStat{}
	}
	raw, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("failed to encode category metrics: %w", err)
	}

	updates := map[string]interface{}{
		"total_ratings":             snapshot.TotalRatings,
		"average_rating":            snapshot.AverageRating,
		"recommendation_percentage": snapshot.RecommendationPercentage,
		"verified_count":            snapshot.VerifiedCount,
		"rejected_count":            snapshot.RejectedCount,
		"flagged_count":             snapshot.FlaggedCount,
		"category_metrics":          string(raw),
	}

	result := r.db.WithContext(ctx).Model(&models.Provider{}).
		Where("id = ?", providerID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("provider %d not found", providerID)
	}
	return nil
}
