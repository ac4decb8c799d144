package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubListener implements Listener for dispatcher tests
type stubListener struct {
	name    string
	kinds   []Kind
	err     error
	panics  bool
	delay   time.Duration
	mu      sync.Mutex
	handled int
}

func (s *stubListener) Name() string  { return s.name }
func (s *stubListener) Kinds() []Kind { return s.kinds }

func (s *stubListener) Handle(ctx context.Context, ev *RatingEvent) error {
	s.mu.Lock()
	s.handled++
	s.mu.Unlock()
	if s.panics {
		panic("boom")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.err
}

func (s *stubListener) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handled
}

// recordingSink captures outcomes handed to the audit logger
type recordingSink struct {
	outcomes []Outcome
}

func (r *recordingSink) Record(ctx context.Context, ev *RatingEvent, outcomes []Outcome) {
	r.outcomes = outcomes
}

func testEvent(kind Kind) *RatingEvent {
	return &RatingEvent{Kind: kind, RatingID: 1, ProviderID: 2, UserID: "u", EmittedAt: time.Now()}
}

func TestDispatch_AllListenersRun(t *testing.T) {
	d := NewDispatcher(time.Second, nil, zap.NewNop())
	a := &stubListener{name: "a", kinds: []Kind{KindCreated}}
	b := &stubListener{name: "b", kinds: []Kind{KindCreated}}
	other := &stubListener{name: "other", kinds: []Kind{KindApproved}}
	d.Register(a)
	d.Register(b)
	d.Register(other)

	err := d.Dispatch(context.Background(), testEvent(KindCreated))
	require.NoError(t, err)

	assert.Equal(t, 1, a.calls())
	assert.Equal(t, 1, b.calls())
	assert.Equal(t, 0, other.calls())
}

func TestDispatch_FailureDoesNotBlockSiblings(t *testing.T) {
	d := NewDispatcher(time.Second, nil, zap.NewNop())
	failing := &stubListener{
		name:  "failing",
		kinds: []Kind{KindFlagged},
		err:   fmt.Errorf("write lost: %w", ErrPersistence),
	}
	healthy := &stubListener{name: "healthy", kinds: []Kind{KindFlagged}}
	d.Register(failing)
	d.Register(healthy)

	err := d.Dispatch(context.Background(), testEvent(KindFlagged))

	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, 1, healthy.calls(), "sibling must still be attempted")
}

func TestDispatch_NonPersistenceErrorsDoNotRequeue(t *testing.T) {
	d := NewDispatcher(time.Second, nil, zap.NewNop())
	d.Register(&stubListener{
		name:  "flaky",
		kinds: []Kind{KindCreated},
		err:   errors.New("recipient mailbox full"),
	})

	err := d.Dispatch(context.Background(), testEvent(KindCreated))
	assert.NoError(t, err)
}

func TestDispatch_PanicIsIsolatedAndRequeued(t *testing.T) {
	d := NewDispatcher(time.Second, nil, zap.NewNop())
	panicker := &stubListener{name: "panicker", kinds: []Kind{KindCreated}, panics: true}
	healthy := &stubListener{name: "healthy", kinds: []Kind{KindCreated}}
	d.Register(panicker)
	d.Register(healthy)

	err := d.Dispatch(context.Background(), testEvent(KindCreated))

	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, 1, healthy.calls())
}

func TestDispatch_TimeoutIsListenerFailure(t *testing.T) {
	d := NewDispatcher(20*time.Millisecond, nil, zap.NewNop())
	slow := &stubListener{name: "slow", kinds: []Kind{KindCreated}, delay: 500 * time.Millisecond}
	fast := &stubListener{name: "fast", kinds: []Kind{KindCreated}}
	d.Register(slow)
	d.Register(fast)

	err := d.Dispatch(context.Background(), testEvent(KindCreated))

	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, 1, fast.calls(), "timeout must not block siblings")
}

func TestDispatch_OutcomesReachSink(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(time.Second, sink, zap.NewNop())
	d.Register(&stubListener{name: "ok", kinds: []Kind{KindCreated}})
	d.Register(&stubListener{
		name:  "broken",
		kinds: []Kind{KindCreated},
		err:   fmt.Errorf("no rows: %w", ErrPersistence),
	})

	_ = d.Dispatch(context.Background(), testEvent(KindCreated))

	require.Len(t, sink.outcomes, 2)
	assert.Equal(t, "ok", sink.outcomes[0].Listener)
	assert.False(t, sink.outcomes[0].Failed())
	assert.Equal(t, "broken", sink.outcomes[1].Listener)
	assert.True(t, sink.outcomes[1].Failed())
}
