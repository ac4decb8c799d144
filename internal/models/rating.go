package models

import "time"

// Rating statuses. Lifecycle: pending -> {flagged, approved};
// flagged -> {approved, rejected}; approved -> verified.
const (
	RatingStatusPending  = "pending"
	RatingStatusFlagged  = "flagged"
	RatingStatusApproved = "approved"
	RatingStatusRejected = "rejected"
	RatingStatusVerified = "verified"
)

type Rating struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	ProviderID     int64     `json:"provider_id" gorm:"not null;index"`
	UserID         string    `json:"user_id" gorm:"type:uuid;not null;index"`
	Rating         int       `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Category       string    `json:"category" gorm:"index"`
	Title          string    `json:"title"`
	Comment        string    `json:"comment"`
	WouldRecommend bool      `json:"would_recommend" gorm:"default:false"`
	IPAddress      string    `json:"ip_address"`
	Status         string    `json:"status" gorm:"not null;default:'pending';index"`

	// Moderation bookkeeping, written only through UpdateStatus
	ModerationReason string     `json:"moderation_reason,omitempty"`
	FlaggedAt        *time.Time `json:"flagged_at,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	RejectedAt       *time.Time `json:"rejected_at,omitempty"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Associations
	User     User     `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
	Provider Provider `json:"provider,omitempty" gorm:"foreignKey:ProviderID;constraint:OnDelete:CASCADE;"`
}

func (Rating) TableName() string {
	return "ratings"
}
