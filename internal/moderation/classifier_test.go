package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ratehub/internal/events"
)

// mockHistory implements the History interface for classifier tests
type mockHistory struct {
	prior       int64
	rejected    int64
	recent      int64
	priorErr    error
	rejectedErr error
	recentErr   error
}

func (m *mockHistory) CountPriorByUser(ctx context.Context, userID string, excludeRatingID int64) (int64, error) {
	return m.prior, m.priorErr
}

func (m *mockHistory) CountRejectedByUser(ctx context.Context, userID string) (int64, error) {
	return m.rejected, m.rejectedErr
}

func (m *mockHistory) CountByUserSince(ctx context.Context, userID string, since time.Duration) (int64, error) {
	return m.recent, m.recentErr
}

// trustedRater has enough history to pass every reputation check
func trustedRater() *mockHistory {
	return &mockHistory{prior: 10, rejected: 0, recent: 1}
}

func cleanSnapshot() events.Snapshot {
	return events.Snapshot{
		Rating:  4,
		Title:   "Great experience",
		Comment: "great product",
	}
}

func TestClassify_AutoApprovesCleanRating(t *testing.T) {
	c := NewClassifier(DefaultConfig(), trustedRater())

	verdict := c.Classify(context.Background(), cleanSnapshot(), "user-1", 42)

	assert.Equal(t, AutoApprove, verdict.Decision)
	assert.Empty(t, verdict.Reason)
}

func TestClassify_Denylist(t *testing.T) {
	c := NewClassifier(DefaultConfig(), trustedRater())

	tests := []struct {
		name    string
		title   string
		comment string
		flagged bool
	}{
		{"denylisted word in comment", "Nice", "this is a total scam", true},
		{"denylisted word in title", "FAKE listing", "fine otherwise", true},
		{"case insensitive", "Nice", "ScAm alert", true},
		{"clean text", "Nice", "honest review", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := cleanSnapshot()
			snap.Title = tt.title
			snap.Comment = tt.comment

			verdict := c.Classify(context.Background(), snap, "user-1", 42)

			if tt.flagged {
				assert.Equal(t, RequireModeration, verdict.Decision)
				assert.Equal(t, ReasonProfanity, verdict.Reason)
			} else {
				assert.Equal(t, AutoApprove, verdict.Decision)
			}
		})
	}
}

func TestClassify_Shouting(t *testing.T) {
	c := NewClassifier(DefaultConfig(), trustedRater())

	tests := []struct {
		name    string
		title   string
		flagged bool
	}{
		{"long all-caps title", "ABSOLUTELY TERRIBLE", true},
		{"short all-caps title", "BAD", false}, // at most 10 chars is fine
		{"mixed case", "Absolutely Terrible Service", false},
		{"empty title", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := cleanSnapshot()
			snap.Title = tt.title

			verdict := c.Classify(context.Background(), snap, "user-1", 42)

			if tt.flagged {
				assert.Equal(t, RequireModeration, verdict.Decision)
				assert.Equal(t, ReasonSuspicious, verdict.Reason)
			} else {
				assert.Equal(t, AutoApprove, verdict.Decision)
			}
		})
	}
}

func TestClassify_RepeatedCharacters(t *testing.T) {
	c := NewClassifier(DefaultConfig(), trustedRater())

	snap := cleanSnapshot()
	snap.Comment = "soooo goooood"
	verdict := c.Classify(context.Background(), snap, "user-1", 42)
	assert.Equal(t, RequireModeration, verdict.Decision)
	assert.Equal(t, ReasonSuspicious, verdict.Reason)

	snap.Comment = "great product"
	verdict = c.Classify(context.Background(), snap, "user-1", 42)
	assert.Equal(t, AutoApprove, verdict.Decision)
}

func TestClassify_ValueOutOfRange(t *testing.T) {
	c := NewClassifier(DefaultConfig(), trustedRater())

	for _, value := range []int{0, -1, 6, 100} {
		snap := cleanSnapshot()
		snap.Rating = value

		verdict := c.Classify(context.Background(), snap, "user-1", 42)

		assert.Equal(t, RequireModeration, verdict.Decision, "value %d", value)
		assert.Equal(t, ReasonSuspicious, verdict.Reason)
	}
}

func TestClassify_NewRater(t *testing.T) {
	c := NewClassifier(DefaultConfig(), &mockHistory{prior: 0})

	verdict := c.Classify(context.Background(), cleanSnapshot(), "newcomer", 42)

	assert.Equal(t, RequireModeration, verdict.Decision)
	assert.Equal(t, ReasonLowReputation, verdict.Reason)
}

func TestClassify_RepeatOffender(t *testing.T) {
	// threshold is 2: three rejections flag, two do not
	flagged := NewClassifier(DefaultConfig(), &mockHistory{prior: 10, rejected: 3, recent: 1})
	verdict := flagged.Classify(context.Background(), cleanSnapshot(), "user-1", 42)
	assert.Equal(t, RequireModeration, verdict.Decision)
	assert.Equal(t, ReasonLowReputation, verdict.Reason)

	tolerated := NewClassifier(DefaultConfig(), &mockHistory{prior: 10, rejected: 2, recent: 1})
	verdict = tolerated.Classify(context.Background(), cleanSnapshot(), "user-1", 42)
	assert.Equal(t, AutoApprove, verdict.Decision)
}

func TestClassify_RateLimit(t *testing.T) {
	// The window count includes the rating under evaluation: the 4th
	// submission within 5 minutes trips the limit, the first 3 do not.
	for submission := int64(1); submission <= 3; submission++ {
		c := NewClassifier(DefaultConfig(), &mockHistory{prior: 10, recent: submission})
		verdict := c.Classify(context.Background(), cleanSnapshot(), "user-1", 42)
		assert.Equal(t, AutoApprove, verdict.Decision, "submission %d", submission)
	}

	c := NewClassifier(DefaultConfig(), &mockHistory{prior: 10, recent: 4})
	verdict := c.Classify(context.Background(), cleanSnapshot(), "user-1", 42)
	assert.Equal(t, RequireModeration, verdict.Decision)
	assert.Equal(t, ReasonSpam, verdict.Reason)
}

func TestClassify_FailsClosedOnHistoryError(t *testing.T) {
	lookupErr := errors.New("connection reset")

	tests := []struct {
		name    string
		history *mockHistory
	}{
		{"prior count fails", &mockHistory{priorErr: lookupErr}},
		{"rejected count fails", &mockHistory{prior: 10, rejectedErr: lookupErr}},
		{"recent count fails", &mockHistory{prior: 10, recentErr: lookupErr}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(DefaultConfig(), tt.history)

			verdict := c.Classify(context.Background(), cleanSnapshot(), "user-1", 42)

			assert.Equal(t, RequireModeration, verdict.Decision)
			assert.Equal(t, ReasonLookupFailed, verdict.Reason)
		})
	}
}

func TestClassify_ChecksShortCircuitInOrder(t *testing.T) {
	// A denylisted comment from a brand-new rater reports profanity, not
	// low reputation: content checks run first.
	c := NewClassifier(DefaultConfig(), &mockHistory{prior: 0})

	snap := cleanSnapshot()
	snap.Comment = "obvious scam"

	verdict := c.Classify(context.Background(), snap, "newcomer", 42)

	assert.Equal(t, RequireModeration, verdict.Decision)
	assert.Equal(t, ReasonProfanity, verdict.Reason)
}
