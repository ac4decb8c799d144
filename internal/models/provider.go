package models

import "time"

type Provider struct {
	ID     int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name   string `json:"name" gorm:"not null"`
	UserID string `json:"user_id" gorm:"type:uuid;index"` // owning user, may be empty

	// Denormalized rating metrics, rebuilt by the aggregator after every
	// rating event. Never patched incrementally.
	TotalRatings             int64    `json:"total_ratings" gorm:"default:0"`
	AverageRating            *float64 `json:"average_rating,omitempty"`
	RecommendationPercentage float64  `json:"recommendation_percentage" gorm:"default:0"`
	VerifiedCount            int64    `json:"verified_count" gorm:"default:0"`
	RejectedCount            int64    `json:"rejected_count" gorm:"default:0"`
	FlaggedCount             int64    `json:"flagged_count" gorm:"default:0"`
	CategoryMetrics          string   `json:"category_metrics,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Associations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Provider) TableName() string {
	return "providers"
}
