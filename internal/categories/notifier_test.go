package categories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"burnrate/internal/core"
)

// blockingNotifier stalls every publish until release is closed.
type blockingNotifier struct {
	release chan struct{}
	mu      sync.Mutex
	events  []core.RuleEvent
}

func (n *blockingNotifier) PublishRuleEvent(ctx context.Context, ev core.RuleEvent) error {
	<-n.release
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *blockingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func TestAsyncNotifier_MutationDoesNotWaitForBroker(t *testing.T) {
	broker := &blockingNotifier{release: make(chan struct{})}
	async := NewAsyncNotifier(broker, 8)
	s, _ := newLoadedStore(t, WithNotifier(async))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- async.Run(ctx) }()

	finished := make(chan struct{})
	go func() {
		_, _ = s.AddCategory(context.Background(), "Groceries")
		_, _ = s.AddKeyword(context.Background(), "Groceries", "Walmart")
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("store mutations blocked on the broker")
	}
	assert.True(t, s.Has("Groceries"))

	close(broker.release)
	require.Eventually(t, func() bool { return broker.count() == 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestAsyncNotifier_FullBufferDrops(t *testing.T) {
	async := NewAsyncNotifier(&recordingNotifier{}, 1)
	ctx := context.Background()

	require.NoError(t, async.PublishRuleEvent(ctx, core.RuleEvent{ID: "1"}))
	assert.ErrorIs(t, async.PublishRuleEvent(ctx, core.RuleEvent{ID: "2"}), ErrNotifierFull)
	assert.Equal(t, int64(1), async.Dropped())
}

func TestAsyncNotifier_FlushesOnStop(t *testing.T) {
	rec := &recordingNotifier{}
	async := NewAsyncNotifier(rec, 4)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, async.PublishRuleEvent(ctx, core.RuleEvent{ID: "1", Type: core.CategoryAdded}))
	require.NoError(t, async.PublishRuleEvent(ctx, core.RuleEvent{ID: "2", Type: core.KeywordAdded}))
	cancel()
	require.NoError(t, async.Run(ctx))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.events, 2)
	assert.Equal(t, "1", rec.events[0].ID)
	assert.Equal(t, "2", rec.events[1].ID)
}
