package repository

import (
	"context"
	"fmt"
	"time"

	"ratehub/internal/models"

	"gorm.io/gorm"
)

type RatingRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Rating, error)
	GetByProvider(ctx context.Context, providerID int64, statusFilter string) ([]models.Rating, error)
	GetApprovedByProvider(ctx context.Context, providerID int64) ([]models.Rating, error)
	GetByUser(ctx context.Context, userID string) ([]models.Rating, error)
	CountByProviderAndStatus(ctx context.Context, providerID int64, status string) (int64, error)
	CountPriorByUser(ctx context.Context, userID string, excludeRatingID int64) (int64, error)
	CountRejectedByUser(ctx context.Context, userID string) (int64, error)
	CountByUserSince(ctx context.Context, userID string, since time.Duration) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status, reason string, at time.Time) error
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

// GetByID retrieves a single rating
func (r *ratingRepository) GetByID(ctx context.Context, id int64) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.WithContext(ctx).First(&rating, id).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// GetByProvider retrieves all ratings for a provider, optionally filtered by status
func (r *ratingRepository) GetByProvider(ctx context.Context, providerID int64, statusFilter string) ([]models.Rating, error) {
	var ratings []models.Rating
	query := r.db.WithContext(ctx).Where("provider_id = ?", providerID)
	if statusFilter != "" {
		query = query.Where("status = ?", statusFilter)
	}
	err := query.Order("created_at DESC").Find(&ratings).Error
	if err != nil {
		return nil, err
	}
	return ratings, nil
}

// GetApprovedByProvider retrieves the approved ratings the aggregator works from
func (r *ratingRepository) GetApprovedByProvider(ctx context.Context, providerID int64) ([]models.Rating, error) {
	return r.GetByProvider(ctx, providerID, models.RatingStatusApproved)
}

// GetByUser retrieves all ratings submitted by a user
func (r *ratingRepository) GetByUser(ctx context.Context, userID string) ([]models.Rating, error) {
	var ratings []models.Rating
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&ratings).Error
	if err != nil {
		return nil, err
	}
	return ratings, nil
}

// CountByProviderAndStatus counts a provider's ratings in one status bucket
func (r *ratingRepository) CountByProviderAndStatus(ctx context.Context, providerID int64, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Rating{}).
		Where("provider_id = ? AND status = ?", providerID, status).
		Count(&count).Error
	return count, err
}

// CountPriorByUser counts a user's ratings excluding the one under evaluation
func (r *ratingRepository) CountPriorByUser(ctx context.Context, userID string, excludeRatingID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Rating{}).
		Where("user_id = ? AND id <> ?", userID, excludeRatingID).
		Count(&count).Error
	return count, err
}

// CountRejectedByUser counts a user's rejected ratings
func (r *ratingRepository) CountRejectedByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Rating{}).
		Where("user_id = ? AND status = ?", userID, models.RatingStatusRejected).
		Count(&count).Error
	return count, err
}

// CountByUserSince counts a user's submissions within the look-back window
func (r *ratingRepository) CountByUserSince(ctx context.Context, userID string, since time.Duration) (int64, error) {
	var count int64
	cutoff := time.Now().Add(-since)
	err := r.db.WithContext(ctx).Model(&models.Rating{}).
		Where("user_id = ? AND created_at >= ?", userID, cutoff).
		Count(&count).Error
	return count, err
}

// UpdateStatus transitions a rating in a single UPDATE so status, reason and
// timestamp can never be observed half-written.
func (r *ratingRepository) UpdateStatus(ctx context.Context, id int64, status, reason string, at time.Time) error {
	updates := map[string]interface{}{
		"status":            status,
		"moderation_reason": reason,
	}
	switch status {
	case models.RatingStatusFlagged:
		updates["flagged_at"] = at
	case models.RatingStatusApproved:
		updates["approved_at"] = at
	case models.RatingStatusRejected:
		updates["rejected_at"] = at
	case models.RatingStatusVerified:
		updates["verified_at"] = at
	}

	result := r.db.WithContext(ctx).Model(&models.Rating{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("rating %d not found", id)
	}
	return nil
}
