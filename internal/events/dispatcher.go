package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrPersistence marks a listener failure caused by a record-store write.
// Only these failures (and recovered panics) make an event eligible for
// redelivery; everything else is logged and swallowed by the listener itself.
var ErrPersistence = errors.New("persistence failure")

// Listener is one independent reaction to a rating event.
type Listener interface {
	Name() string
	Kinds() []Kind
	Handle(ctx context.Context, ev *RatingEvent) error
}

// Outcome records the result of one listener's attempt at one event.
type Outcome struct {
	Listener string
	Duration time.Duration
	Err      error
}

func (o Outcome) Failed() bool { return o.Err != nil }

// OutcomeSink receives the per-listener outcomes once an event has been
// fully processed. Best-effort; the dispatcher ignores its errors.
type OutcomeSink interface {
	Record(ctx context.Context, ev *RatingEvent, outcomes []Outcome)
}

// Dispatcher fans a rating event out to every registered listener. Each
// listener runs under its own timeout with panic recovery; one listener
// failing never prevents the others from being attempted.
type Dispatcher struct {
	byKind          map[Kind][]Listener
	listenerTimeout time.Duration
	sink            OutcomeSink
	log             *zap.Logger
}

func NewDispatcher(listenerTimeout time.Duration, sink OutcomeSink, log *zap.Logger) *Dispatcher {
	if listenerTimeout <= 0 {
		listenerTimeout = 30 * time.Second
	}
	return &Dispatcher{
		byKind:          make(map[Kind][]Listener),
		listenerTimeout: listenerTimeout,
		sink:            sink,
		log:             log,
	}
}

// Register adds a listener for every kind it declares.
func (d *Dispatcher) Register(l Listener) {
	for _, k := range l.Kinds() {
		d.byKind[k] = append(d.byKind[k], l)
	}
}

// Dispatch runs every listener registered for ev.Kind, sequentially, and
// returns a non-nil error only when at least one listener failed in a way
// that warrants redelivery. The event counts as processed either way: all
// listeners are always attempted.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *RatingEvent) error {
	targets := d.byKind[ev.Kind]
	outcomes := make([]Outcome, 0, len(targets))

	var redeliver error
	for _, l := range targets {
		start := time.Now()
		err := d.invoke(ctx, l, ev)
		outcome := Outcome{Listener: l.Name(), Duration: time.Since(start), Err: err}
		outcomes = append(outcomes, outcome)

		if err != nil {
			d.log.Error("listener failed",
				zap.String("listener", l.Name()),
				zap.String("kind", string(ev.Kind)),
				zap.Int64("rating_id", ev.RatingID),
				zap.Error(err))
			// Only record-store failures and panics warrant redelivery;
			// anything else was already handled inside the listener.
			if redeliver == nil && errors.Is(err, ErrPersistence) {
				redeliver = fmt.Errorf("listener %s: %w", l.Name(), err)
			}
		}
	}

	if d.sink != nil {
		d.sink.Record(ctx, ev, outcomes)
	}
	return redeliver
}

// invoke runs a single listener under its own timeout and converts panics
// and deadline expiry into listener failures.
func (d *Dispatcher) invoke(ctx context.Context, l Listener, ev *RatingEvent) (err error) {
	lctx, cancel := context.WithTimeout(ctx, d.listenerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v: %w", r, ErrPersistence)
		}
	}()

	if err := l.Handle(lctx, ev); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("listener timed out: %w", ErrPersistence)
		}
		return err
	}
	return nil
}
