package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"burnrate/internal/amqp"
	"burnrate/internal/categories"
	"burnrate/internal/core"
)

type failingReloader struct{ calls int }

func (f *failingReloader) Load(ctx context.Context) error {
	f.calls++
	return errors.New("disk gone")
}

func TestReloadWorker_PicksUpExternalChanges(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "categories.json")
	store := categories.New(path)
	if err := store.Load(ctx); err != nil {
		t.Fatal(err)
	}

	// Another process writes through its own store.
	other := categories.New(path)
	if _, err := other.AddCategory(ctx, "Groceries"); err != nil {
		t.Fatal(err)
	}
	if store.Has("Groceries") {
		t.Fatal("store should not see the change before the event")
	}

	w := NewReloadWorker(store)
	msg := amqp.NewRuleEventMessage(core.RuleEvent{ID: "1", Type: core.CategoryAdded, Category: "Groceries"})
	if err := w.HandleRuleEvent(ctx, msg); err != nil {
		t.Fatalf("HandleRuleEvent() = %v", err)
	}
	if !store.Has("Groceries") {
		t.Errorf("categories = %v, want Groceries after reload", store.Categories())
	}
}

func TestReloadWorker_LoadError(t *testing.T) {
	r := &failingReloader{}
	w := NewReloadWorker(r)

	err := w.HandleRuleEvent(context.Background(), &amqp.RuleEventMessage{Type: core.KeywordAdded, Category: "Rent"})
	if err == nil {
		t.Fatal("expected error")
	}
	if r.calls != 1 {
		t.Errorf("Load called %d times, want 1", r.calls)
	}
	if amqp.IsPermanent(err) {
		t.Error("an unclassified load error should be retried")
	}
}

func TestReloadWorker_CorruptDocumentKeepsRules(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "categories.json")
	store := categories.New(path)
	if _, err := store.AddCategory(ctx, "Rent"); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := NewReloadWorker(store).HandleRuleEvent(ctx, &amqp.RuleEventMessage{Type: core.CategoryAdded, Category: "X"})
	if !core.IsPersistenceError(err) {
		t.Errorf("expected persistence error, got %v", err)
	}
	if !amqp.IsPermanent(err) {
		t.Error("a corrupt document should not be redelivered")
	}
	if !store.Has("Rent") {
		t.Error("rules should survive a failed reload")
	}
}
