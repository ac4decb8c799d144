package notify

import (
	"context"

	"ratehub/internal/models"
	"ratehub/internal/repository"
)

// DBNotifier persists notifications as unread rows; clients pick them up
// through the notifications API.
type DBNotifier struct {
	repo repository.NotificationRepository
}

func NewDBNotifier(repo repository.NotificationRepository) *DBNotifier {
	return &DBNotifier{repo: repo}
}

func (n *DBNotifier) Send(ctx context.Context, recipientID, kind string, payload Payload) error {
	return n.repo.Create(ctx, &models.Notification{
		UserID:     recipientID,
		Type:       kind,
		RatingID:   payload.RatingID,
		ProviderID: payload.ProviderID,
		Title:      payload.Title,
		Message:    payload.Message,
	})
}
