// Package worker reacts to rule events published by other burnrate
// processes.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"burnrate/internal/amqp"
	"burnrate/internal/core"
)

// Reloader re-reads the categories document. *categories.Store implements it.
type Reloader interface {
	Load(ctx context.Context) error
}

// ReloadWorker keeps a long-running store in step with changes written by
// other processes sharing the same categories document.
type ReloadWorker struct {
	store Reloader
}

func NewReloadWorker(store Reloader) *ReloadWorker {
	return &ReloadWorker{store: store}
}

// HandleRuleEvent reloads the document. Events this process published
// itself cause a reload of what is already in memory. A document that cannot
// be read or decoded fails the same way on every redelivery, so that error is
// reported as permanent.
func (w *ReloadWorker) HandleRuleEvent(ctx context.Context, msg *amqp.RuleEventMessage) error {
	ev := msg.Event()
	slog.InfoContext(ctx, "Processing rule event",
		"event_id", ev.ID,
		"type", ev.Type,
		"category", ev.Category,
		"keyword", ev.Keyword)

	if err := w.store.Load(ctx); err != nil {
		err = fmt.Errorf("reload categories after %s: %w", ev.Type, err)
		if core.IsPersistenceError(err) {
			return amqp.Permanent(err)
		}
		return err
	}
	return nil
}
