package models

import "time"

// Notification kinds emitted by the rating pipeline.
const (
	NotificationRatingReceived = "RATING_RECEIVED"
	NotificationRatingUpdated  = "RATING_UPDATED"
	NotificationRatingApproved = "RATING_APPROVED"
	NotificationRatingRejected = "RATING_REJECTED"
	NotificationRatingVerified = "RATING_VERIFIED"
	NotificationReviewRequired = "REVIEW_REQUIRED"
)

type Notification struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Type       string    `gorm:"not null" json:"type"`
	RatingID   int64     `json:"rating_id"`
	ProviderID int64     `json:"provider_id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Read       bool      `gorm:"default:false" json:"read"`
	CreatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	// Associations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}
