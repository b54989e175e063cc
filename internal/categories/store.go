// Package categories owns the category -> keyword rules and their JSON document.
//
// The store is write-through: every successful mutation rewrites the whole
// document before it becomes visible in memory. It assumes a single writer;
// there is no file locking or coordination between processes.
package categories

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"burnrate/internal/core"
)

// Notifier receives rule changes after they have been persisted.
type Notifier interface {
	PublishRuleEvent(ctx context.Context, ev core.RuleEvent) error
}

type Option func(*Store)

// WithNotifier publishes a core.RuleEvent after each persisted mutation.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithStrictKeywords rejects a keyword already held by another category.
func WithStrictKeywords(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

type Store struct {
	mu       sync.Mutex
	path     string
	rules    core.RuleSet
	strict   bool
	notifier Notifier
}

// New returns a store holding the default rules. Call Load to read the
// persisted document.
func New(path string, opts ...Option) *Store {
	s := &Store{path: path, rules: core.DefaultRules()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Path() string { return s.path }

// Load replaces the in-memory rules with the persisted document. A missing
// document yields the default rules. On failure the current rules are kept.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.rules = core.DefaultRules()
		slog.InfoContext(ctx, "Categories document not found, using defaults", "path", s.path)
		return nil
	}
	if err != nil {
		return &core.PersistenceError{Op: "read", Path: s.path, Err: err}
	}

	var rs core.RuleSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return &core.PersistenceError{Op: "decode", Path: s.path, Err: err}
	}
	s.rules = rs.Normalize()

	slog.InfoContext(ctx, "Categories loaded", "path", s.path, "categories", len(s.rules))
	return nil
}

// Save writes the current rules.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(s.rules); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Categories saved", "path", s.path)
	return nil
}

// Rules returns a copy of the rules in insertion order.
func (s *Store) Rules() core.RuleSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules.Clone()
}

func (s *Store) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules.Names()
}

func (s *Store) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules.Index(name) >= 0
}

// Keywords returns a copy of a category's keywords.
func (s *Store) Keywords(category string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.rules.Index(category)
	if idx < 0 {
		return nil, &core.UnknownCategoryError{Category: category}
	}
	return append([]string{}, s.rules[idx].Keywords...), nil
}

// AddCategory adds an empty category. It reports false without error when
// the trimmed name is empty or already present.
func (s *Store) AddCategory(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	return s.update(ctx, func(rs core.RuleSet) (core.RuleSet, *core.RuleEvent, error) {
		if name == "" || rs.Index(name) >= 0 {
			return nil, nil, nil
		}
		rs = append(rs, core.Rule{Name: name, Keywords: []string{}})
		return rs, &core.RuleEvent{Type: core.CategoryAdded, Category: name}, nil
	})
}

// AddKeyword appends the trimmed keyword to category. It reports false
// without error when the keyword is empty, already present in the category
// (ignoring case), or the category is Uncategorized.
func (s *Store) AddKeyword(ctx context.Context, category, keyword string) (bool, error) {
	keyword = strings.TrimSpace(keyword)
	return s.update(ctx, func(rs core.RuleSet) (core.RuleSet, *core.RuleEvent, error) {
		idx := rs.Index(category)
		if idx < 0 {
			return nil, nil, &core.UnknownCategoryError{Category: category}
		}
		if keyword == "" || category == core.Uncategorized {
			return nil, nil, nil
		}
		key := core.MatchKey(keyword)
		for _, kw := range rs[idx].Keywords {
			if core.MatchKey(kw) == key {
				return nil, nil, nil
			}
		}
		if s.strict {
			if owner, taken := rs.Owner(keyword, category); taken {
				return nil, nil, &core.DuplicateKeywordError{Keyword: keyword, Category: category, Owner: owner}
			}
		}
		rs[idx].Keywords = append(rs[idx].Keywords, keyword)
		return rs, &core.RuleEvent{Type: core.KeywordAdded, Category: category, Keyword: keyword}, nil
	})
}

// RemoveKeyword drops every keyword of category equal to keyword, ignoring
// case and surrounding whitespace.
func (s *Store) RemoveKeyword(ctx context.Context, category, keyword string) (bool, error) {
	key := core.MatchKey(keyword)
	return s.update(ctx, func(rs core.RuleSet) (core.RuleSet, *core.RuleEvent, error) {
		idx := rs.Index(category)
		if idx < 0 {
			return nil, nil, &core.UnknownCategoryError{Category: category}
		}
		kept := make([]string, 0, len(rs[idx].Keywords))
		for _, kw := range rs[idx].Keywords {
			if core.MatchKey(kw) != key {
				kept = append(kept, kw)
			}
		}
		if len(kept) == len(rs[idx].Keywords) {
			return nil, nil, nil
		}
		rs[idx].Keywords = kept
		return rs, &core.RuleEvent{Type: core.KeywordRemoved, Category: category, Keyword: strings.TrimSpace(keyword)}, nil
	})
}

// RemoveCategory deletes a category and its keywords. The name is trimmed
// as in AddCategory. Uncategorized cannot be removed.
func (s *Store) RemoveCategory(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	return s.update(ctx, func(rs core.RuleSet) (core.RuleSet, *core.RuleEvent, error) {
		if name == core.Uncategorized {
			return nil, nil, nil
		}
		idx := rs.Index(name)
		if idx < 0 {
			return nil, nil, &core.UnknownCategoryError{Category: name}
		}
		rs = append(rs[:idx], rs[idx+1:]...)
		return rs, &core.RuleEvent{Type: core.CategoryRemoved, Category: name}, nil
	})
}

// update runs fn on a copy of the rules. A nil event means nothing changed.
// The copy becomes current only after it was written.
func (s *Store) update(ctx context.Context, fn func(core.RuleSet) (core.RuleSet, *core.RuleEvent, error)) (bool, error) {
	s.mu.Lock()
	next, ev, err := fn(s.rules.Clone())
	if err != nil || ev == nil {
		s.mu.Unlock()
		return false, err
	}
	if err := s.write(next); err != nil {
		s.mu.Unlock()
		slog.ErrorContext(ctx, "Failed to persist categories", "path", s.path, "operation", ev.Type, "error", err)
		return false, err
	}
	s.rules = next
	s.mu.Unlock()

	ev.ID = uuid.NewString()
	ev.Timestamp = time.Now().UTC()
	slog.InfoContext(ctx, "Categories updated",
		"operation", ev.Type,
		"category", ev.Category,
		"keyword", ev.Keyword)

	s.notify(ctx, *ev)
	return true, nil
}

func (s *Store) notify(ctx context.Context, ev core.RuleEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishRuleEvent(ctx, ev); err != nil {
		// The change is already on disk.
		slog.WarnContext(ctx, "Failed to publish rule event", "id", ev.ID, "type", ev.Type, "error", err)
	}
}

// write replaces the document atomically: temp file in the same directory,
// fsync, rename. The temp file is removed on any failure.
func (s *Store) write(rs core.RuleSet) (err error) {
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return &core.PersistenceError{Op: "encode", Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &core.PersistenceError{Op: "mkdir", Path: dir, Err: err}
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &core.PersistenceError{Op: "create", Path: s.path, Err: err}
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if _, err = f.Write(append(data, '\n')); err != nil {
		return &core.PersistenceError{Op: "write", Path: tmp, Err: err}
	}
	if err = f.Sync(); err != nil {
		return &core.PersistenceError{Op: "sync", Path: tmp, Err: err}
	}
	if err = f.Close(); err != nil {
		return &core.PersistenceError{Op: "close", Path: tmp, Err: err}
	}
	if err = os.Chmod(tmp, 0o644); err != nil {
		return &core.PersistenceError{Op: "chmod", Path: tmp, Err: err}
	}
	if err = os.Rename(tmp, s.path); err != nil {
		return &core.PersistenceError{Op: "rename", Path: s.path, Err: err}
	}
	return nil
}
