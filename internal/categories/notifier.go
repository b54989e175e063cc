package categories

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"burnrate/internal/core"
)

var ErrNotifierFull = errors.New("rule event buffer full")

// AsyncNotifier queues rule events and publishes them from Run, so a slow
// or unreachable broker never holds up a store mutation or its callers.
type AsyncNotifier struct {
	next    Notifier
	events  chan core.RuleEvent
	dropped atomic.Int64
}

func NewAsyncNotifier(next Notifier, buffer int) *AsyncNotifier {
	if buffer < 1 {
		buffer = 1
	}
	return &AsyncNotifier{next: next, events: make(chan core.RuleEvent, buffer)}
}

// PublishRuleEvent enqueues ev without blocking. It returns ErrNotifierFull
// when the buffer is full; the event is then lost.
func (n *AsyncNotifier) PublishRuleEvent(_ context.Context, ev core.RuleEvent) error {
	select {
	case n.events <- ev:
		return nil
	default:
		n.dropped.Add(1)
		return ErrNotifierFull
	}
}

// Dropped counts events lost to a full buffer.
func (n *AsyncNotifier) Dropped() int64 {
	return n.dropped.Load()
}

// Run publishes queued events until ctx is done, then flushes what is
// still buffered. It always returns nil.
func (n *AsyncNotifier) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-n.events:
			n.publish(ctx, ev)
		case <-ctx.Done():
			n.flush(context.WithoutCancel(ctx))
			return nil
		}
	}
}

func (n *AsyncNotifier) flush(ctx context.Context) {
	for {
		select {
		case ev := <-n.events:
			n.publish(ctx, ev)
		default:
			return
		}
	}
}

func (n *AsyncNotifier) publish(ctx context.Context, ev core.RuleEvent) {
	if err := n.next.PublishRuleEvent(ctx, ev); err != nil {
		slog.WarnContext(ctx, "Failed to publish rule event", "id", ev.ID, "type", ev.Type, "error", err)
	}
}
