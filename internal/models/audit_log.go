package models

import "time"

// AuditLog records one listener reaction outcome per processed rating event.
type AuditLog struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID    string    `gorm:"type:uuid;index" json:"actor_id"`
	Action     string    `gorm:"not null;index" json:"action"`
	RatingID   int64     `gorm:"index" json:"rating_id"`
	ProviderID int64     `gorm:"index" json:"provider_id"`
	Outcome    string    `gorm:"not null" json:"outcome"` // "succeeded" or "failed"
	Detail     string    `json:"detail,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	CreatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
