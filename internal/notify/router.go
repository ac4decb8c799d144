// Package notify decides who is told about a rating event and hands the
// actual delivery to a Notifier.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ratehub/internal/events"
	"ratehub/internal/models"
)

// Payload carries the notification content handed to the Notifier.
type Payload struct {
	Title      string `json:"title"`
	Message    string `json:"message"`
	RatingID   int64  `json:"rating_id"`
	ProviderID int64  `json:"provider_id"`
}

// Notifier delivers one notification to one recipient. Implementations may
// persist rows, push over a socket, or call an external service.
type Notifier interface {
	Send(ctx context.Context, recipientID, kind string, payload Payload) error
}

// Directory resolves the recipients the router needs.
type Directory interface {
	GetProviderOwner(ctx context.Context, providerID int64) (string, error)
	GetModeratorIDs(ctx context.Context) ([]string, error)
}

// DispatchResult records the outcome of one recipient's dispatch.
type DispatchResult struct {
	RecipientID string
	Kind        string
	Err         error
}

// Router maps an event kind to its recipients and fans dispatches out.
type Router struct {
	notifier  Notifier
	directory Directory
	log       *zap.Logger
}

func NewRouter(notifier Notifier, directory Directory, log *zap.Logger) *Router {
	return &Router{notifier: notifier, directory: directory, log: log}
}

// RouteAndDispatch resolves recipients for ev and sends each one its
// notification. Dispatches are independent: one recipient failing never
// blocks the others, and missing recipients are skipped rather than
// treated as errors.
func (r *Router) RouteAndDispatch(ctx context.Context, ev *events.RatingEvent) []DispatchResult {
	var results []DispatchResult

	dispatch := func(recipientID, kind string, payload Payload) {
		if recipientID == "" {
			return
		}
		err := r.notifier.Send(ctx, recipientID, kind, payload)
		if err != nil {
			r.log.Warn("notification dispatch failed",
				zap.String("recipient", recipientID),
				zap.String("kind", kind),
				zap.Int64("rating_id", ev.RatingID),
				zap.Error(err))
		}
		results = append(results, DispatchResult{RecipientID: recipientID, Kind: kind, Err: err})
	}

	payload := Payload{RatingID: ev.RatingID, ProviderID: ev.ProviderID}

	switch ev.Kind {
	case events.KindCreated, events.KindUpdated:
		owner, err := r.directory.GetProviderOwner(ctx, ev.ProviderID)
		if err != nil {
			r.log.Warn("provider owner lookup failed",
				zap.Int64("provider_id", ev.ProviderID), zap.Error(err))
			return results
		}
		kind := models.NotificationRatingReceived
		payload.Title = "New rating received"
		payload.Message = fmt.Sprintf("A %d-star rating was submitted for your listing", ev.Snapshot.Rating)
		if ev.Kind == events.KindUpdated {
			kind = models.NotificationRatingUpdated
			payload.Title = "Rating updated"
			payload.Message = fmt.Sprintf("A rating on your listing was changed to %d stars", ev.Snapshot.Rating)
		}
		dispatch(owner, kind, payload)

	case events.KindApproved:
		payload.Title = "Rating approved"
		payload.Message = "Your rating was approved and is now visible"
		dispatch(ev.UserID, models.NotificationRatingApproved, payload)

	case events.KindRejected:
		payload.Title = "Rating rejected"
		payload.Message = "Your rating was rejected by a moderator"
		dispatch(ev.UserID, models.NotificationRatingRejected, payload)

	case events.KindVerified:
		payload.Title = "Rating verified"
		payload.Message = "Your rating was verified"
		dispatch(ev.UserID, models.NotificationRatingVerified, payload)

	case events.KindFlagged:
		moderators, err := r.directory.GetModeratorIDs(ctx)
		if err != nil {
			r.log.Warn("moderator lookup failed", zap.Error(err))
			return results
		}
		payload.Title = "Rating requires review"
		payload.Message = fmt.Sprintf("Rating %d was flagged for moderation", ev.RatingID)
		for _, id := range moderators {
			dispatch(id, models.NotificationReviewRequired, payload)
		}
	}

	return results
}
