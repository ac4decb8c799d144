// Package moderation implements the heuristic classifier that decides
// whether a new or changed rating can be auto-approved or needs a human.
package moderation

import (
	"context"
	"strings"
	"time"
	"unicode"

	"ratehub/internal/events"
)

// Decision is the classifier's verdict on a rating snapshot.
type Decision string

const (
	AutoApprove       Decision = "auto_approve"
	RequireModeration Decision = "require_moderation"
)

// Flag reasons, stored on the rating and surfaced to moderators.
const (
	ReasonProfanity     = "profanity"
	ReasonSuspicious    = "suspicious pattern"
	ReasonLowReputation = "low reputation"
	ReasonSpam          = "spam"
	ReasonLookupFailed  = "history lookup failed"
)

type Verdict struct {
	Decision Decision
	Reason   string
}

// History is the read-only view of a rater's track record the classifier
// consults. Implemented by the rating repository.
//
// CountPriorByUser excludes the rating under evaluation (it already exists
// in the store by the time its event is processed). CountByUserSince counts
// every submission in the window, current one included, so the rate limit
// trips on the submission that crosses it.
type History interface {
	CountPriorByUser(ctx context.Context, userID string, excludeRatingID int64) (int64, error)
	CountRejectedByUser(ctx context.Context, userID string) (int64, error)
	CountByUserSince(ctx context.Context, userID string, since time.Duration) (int64, error)
}

// Config carries the moderation thresholds. All of them are tunable via
// environment configuration; the defaults are the documented contract.
type Config struct {
	Denylist          []string      // case-insensitive substrings
	ShoutingMinLen    int           // all-caps titles longer than this are suspicious
	RepeatRunLen      int           // runs of identical characters at least this long
	RejectedThreshold int64         // more rejected ratings than this = repeat offender
	SpamWindow        time.Duration // look-back window for rate limiting
	SpamMaxInWindow   int64         // more ratings than this within SpamWindow = spam
}

// DefaultConfig returns the documented thresholds.
func DefaultConfig() Config {
	return Config{
		Denylist:          []string{"spam", "fake", "scam", "fraud"},
		ShoutingMinLen:    10,
		RepeatRunLen:      5,
		RejectedThreshold: 2,
		SpamWindow:        5 * time.Minute,
		SpamMaxInWindow:   3,
	}
}

// Classifier evaluates rating snapshots against the moderation heuristics.
// It never writes state; callers apply the verdict.
type Classifier struct {
	cfg     Config
	history History
}

func NewClassifier(cfg Config, history History) *Classifier {
	return &Classifier{cfg: cfg, history: history}
}

// Classify runs each check in order and short-circuits on the first hit.
// A failed history lookup yields RequireModeration: the classifier fails
// closed, never open.
func (c *Classifier) Classify(ctx context.Context, snap events.Snapshot, userID string, ratingID int64) Verdict {
	if reason := c.checkContent(snap); reason != "" {
		return Verdict{Decision: RequireModeration, Reason: reason}
	}

	// Rater history checks. Treated as untrusted lookups: any error flags
	// the rating for manual review.
	total, err := c.history.CountPriorByUser(ctx, userID, ratingID)
	if err != nil {
		return Verdict{Decision: RequireModeration, Reason: ReasonLookupFailed}
	}
	if total == 0 {
		return Verdict{Decision: RequireModeration, Reason: ReasonLowReputation}
	}

	rejected, err := c.history.CountRejectedByUser(ctx, userID)
	if err != nil {
		return Verdict{Decision: RequireModeration, Reason: ReasonLookupFailed}
	}
	if rejected > c.cfg.RejectedThreshold {
		return Verdict{Decision: RequireModeration, Reason: ReasonLowReputation}
	}

	recent, err := c.history.CountByUserSince(ctx, userID, c.cfg.SpamWindow)
	if err != nil {
		return Verdict{Decision: RequireModeration, Reason: ReasonLookupFailed}
	}
	if recent > c.cfg.SpamMaxInWindow {
		return Verdict{Decision: RequireModeration, Reason: ReasonSpam}
	}

	return Verdict{Decision: AutoApprove}
}

// checkContent runs the checks that need only the snapshot itself.
func (c *Classifier) checkContent(snap events.Snapshot) string {
	title := strings.ToLower(snap.Title)
	comment := strings.ToLower(snap.Comment)
	for _, word := range c.cfg.Denylist {
		w := strings.ToLower(word)
		if w == "" {
			continue
		}
		if strings.Contains(title, w) || strings.Contains(comment, w) {
			return ReasonProfanity
		}
	}

	if isShouting(snap.Title, c.cfg.ShoutingMinLen) {
		return ReasonSuspicious
	}
	if hasRepeatedRun(snap.Comment, c.cfg.RepeatRunLen) {
		return ReasonSuspicious
	}
	// Out-of-range values should not survive upstream validation, but the
	// classifier treats the snapshot as untrusted input.
	if snap.Rating < 1 || snap.Rating > 5 {
		return ReasonSuspicious
	}
	return ""
}

// isShouting reports whether the title is non-empty, entirely upper-case
// and longer than minLen characters.
func isShouting(title string, minLen int) bool {
	if len([]rune(title)) <= minLen {
		return false
	}
	hasLetter := false
	for _, r := range title {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

// hasRepeatedRun reports whether the comment contains a run of runLen or
// more identical consecutive characters.
func hasRepeatedRun(comment string, runLen int) bool {
	if runLen <= 0 {
		return false
	}
	var prev rune
	count := 0
	for _, r := range comment {
		if r == prev {
			count++
			if count >= runLen {
				return true
			}
		} else {
			prev = r
			count = 1
		}
	}
	return false
}
