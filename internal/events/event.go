package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies the rating state change an event describes.
type Kind string

const (
	KindCreated  Kind = "created"
	KindUpdated  Kind = "updated"
	KindApproved Kind = "approved"
	KindRejected Kind = "rejected"
	KindFlagged  Kind = "flagged"
	KindVerified Kind = "verified"
)

// AllKinds lists every event kind the pipeline reacts to.
var AllKinds = []Kind{KindCreated, KindUpdated, KindApproved, KindRejected, KindFlagged, KindVerified}

func (k Kind) Valid() bool {
	switch k {
	case KindCreated, KindUpdated, KindApproved, KindRejected, KindFlagged, KindVerified:
		return true
	}
	return false
}

// Snapshot is a read-only copy of the rating's fields at emission time.
type Snapshot struct {
	Rating         int       `json:"rating"`
	Category       string    `json:"category"`
	Title          string    `json:"title"`
	Comment        string    `json:"comment"`
	WouldRecommend bool      `json:"would_recommend"`
	IPAddress      string    `json:"ip_address"`
	CreatedAt      time.Time `json:"created_at"`
}

// RatingEvent describes one state change of one rating. Immutable after
// decoding; listeners must tolerate receiving the same event more than once.
type RatingEvent struct {
	Kind       Kind     `json:"kind"`
	RatingID   int64    `json:"rating_id"`
	ProviderID int64    `json:"provider_id"`
	UserID     string   `json:"user_id"`
	Snapshot   Snapshot `json:"snapshot"`

	// Request provenance, carried explicitly instead of read from any
	// ambient request state.
	ActorID   string `json:"actor_id,omitempty"`
	ActorIP   string `json:"actor_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	EmittedAt time.Time `json:"emitted_at"`
}

// DecodeEnvelope parses a broker message body into a RatingEvent and
// rejects envelopes the pipeline cannot act on.
func DecodeEnvelope(body []byte) (*RatingEvent, error) {
	var ev RatingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("malformed event envelope: %w", err)
	}
	if !ev.Kind.Valid() {
		return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	if ev.RatingID == 0 {
		return nil, fmt.Errorf("event %s missing rating_id", ev.Kind)
	}
	if ev.ProviderID == 0 {
		return nil, fmt.Errorf("event %s missing provider_id", ev.Kind)
	}
	if ev.UserID == "" {
		return nil, fmt.Errorf("event %s missing user_id", ev.Kind)
	}
	if ev.EmittedAt.IsZero() {
		ev.EmittedAt = time.Now().UTC()
	}
	return &ev, nil
}
