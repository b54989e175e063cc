package categories

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"burnrate/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []core.RuleEvent
	err    error
}

func (n *recordingNotifier) PublishRuleEvent(_ context.Context, ev core.RuleEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func newLoadedStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "categories.json")
	s := New(path, opts...)
	require.NoError(t, s.Load(context.Background()))
	return s, path
}

func readDocument(t *testing.T, path string) core.RuleSet {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rs core.RuleSet
	require.NoError(t, json.Unmarshal(data, &rs))
	return rs
}

func TestLoad_MissingDocumentUsesDefaults(t *testing.T) {
	s, path := newLoadedStore(t)

	assert.Equal(t, []string{core.Uncategorized}, s.Categories())
	_, err := os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist), "load must not create the document")
}

func TestLoad_ExistingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.json")
	doc := `{"Rent": ["Rent Co"], "Groceries": ["walmart"], "Uncategorized": ["ignored"]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s := New(path)
	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, []string{"Rent", "Groceries", core.Uncategorized}, s.Categories())
	kws, err := s.Keywords(core.Uncategorized)
	require.NoError(t, err)
	assert.Empty(t, kws)
}

func TestLoad_AddsFallbackWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Groceries": []}`), 0o644))

	s := New(path)
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, []string{core.Uncategorized, "Groceries"}, s.Categories())
}

func TestLoad_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Groceries": [`), 0o644))

	s := New(path)
	err := s.Load(context.Background())

	var perr *core.PersistenceError
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.Equal(t, "decode", perr.Op)
	assert.Equal(t, []string{core.Uncategorized}, s.Categories(), "state kept on failure")
}

func TestLoad_NormalizesCategoryNames(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		want     []string
		keywords map[string][]string
	}{
		{
			name:     "empty name dropped",
			doc:      `{"": ["x"], "Food": ["a"]}`,
			want:     []string{core.Uncategorized, "Food"},
			keywords: map[string][]string{"Food": {"a"}},
		},
		{
			name:     "padded name trimmed",
			doc:      `{"  Food ": ["a"]}`,
			want:     []string{core.Uncategorized, "Food"},
			keywords: map[string][]string{"Food": {"a"}},
		},
		{
			name:     "names colliding after trim merged",
			doc:      `{"Food": ["a"], "Rent": [], " Food": ["A", " b "]}`,
			want:     []string{core.Uncategorized, "Food", "Rent"},
			keywords: map[string][]string{"Food": {"a", "b"}, "Rent": {}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "categories.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.doc), 0o644))

			s := New(path)
			require.NoError(t, s.Load(context.Background()))
			assert.Equal(t, tt.want, s.Categories())
			for category, want := range tt.keywords {
				kws, err := s.Keywords(category)
				require.NoError(t, err)
				assert.Equal(t, want, kws, category)
			}
		})
	}
}

func TestLoad_PaddedNameReachableAfterLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"  Food ": ["a"]}`), 0o644))
	s := New(path)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	added, err := s.AddKeyword(ctx, "Food", "Bakery")
	require.NoError(t, err)
	assert.True(t, added)

	removed, err := s.RemoveCategory(ctx, "Food")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestAddCategory(t *testing.T) {
	s, path := newLoadedStore(t)
	ctx := context.Background()

	added, err := s.AddCategory(ctx, "  Groceries ")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{core.Uncategorized, "Groceries"}, readDocument(t, path).Names())

	for _, name := range []string{"Groceries", "", "   ", core.Uncategorized} {
		added, err := s.AddCategory(ctx, name)
		require.NoError(t, err)
		assert.False(t, added, "%q", name)
	}
	assert.Equal(t, []string{core.Uncategorized, "Groceries"}, s.Categories())
}

func TestAddKeyword_TrimsAndPersists(t *testing.T) {
	s, path := newLoadedStore(t)
	ctx := context.Background()
	_, err := s.AddCategory(ctx, "Groceries")
	require.NoError(t, err)

	added, err := s.AddKeyword(ctx, "Groceries", "  Walmart  ")
	require.NoError(t, err)
	assert.True(t, added)

	kws, err := s.Keywords("Groceries")
	require.NoError(t, err)
	assert.Equal(t, []string{"Walmart"}, kws)

	doc := readDocument(t, path)
	assert.Equal(t, []string{"Walmart"}, doc[doc.Index("Groceries")].Keywords)
}

func TestAddKeyword_Idempotent(t *testing.T) {
	s, _ := newLoadedStore(t)
	ctx := context.Background()
	_, _ = s.AddCategory(ctx, "Groceries")

	for _, kw := range []string{"Walmart", "Walmart", "walmart", " WALMART "} {
		_, err := s.AddKeyword(ctx, "Groceries", kw)
		require.NoError(t, err)
	}
	kws, _ := s.Keywords("Groceries")
	assert.Equal(t, []string{"Walmart"}, kws)
}

func TestAddKeyword_NoOps(t *testing.T) {
	s, _ := newLoadedStore(t)
	ctx := context.Background()
	_, _ = s.AddCategory(ctx, "Groceries")

	added, err := s.AddKeyword(ctx, "Groceries", "   ")
	require.NoError(t, err)
	assert.False(t, added)

	added, err = s.AddKeyword(ctx, core.Uncategorized, "Walmart")
	require.NoError(t, err)
	assert.False(t, added)
	kws, _ := s.Keywords(core.Uncategorized)
	assert.Empty(t, kws)
}

func TestAddKeyword_UnknownCategory(t *testing.T) {
	s, _ := newLoadedStore(t)

	_, err := s.AddKeyword(context.Background(), "Nope", "x")
	var unknown *core.UnknownCategoryError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Nope", unknown.Category)
}

func TestAddKeyword_DuplicatesAcrossCategories(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed by default", func(t *testing.T) {
		s, _ := newLoadedStore(t)
		_, _ = s.AddCategory(ctx, "Groceries")
		_, _ = s.AddCategory(ctx, "Shopping")
		_, _ = s.AddKeyword(ctx, "Groceries", "Walmart")

		added, err := s.AddKeyword(ctx, "Shopping", "walmart")
		require.NoError(t, err)
		assert.True(t, added)
	})

	t.Run("rejected in strict mode", func(t *testing.T) {
		s, _ := newLoadedStore(t, WithStrictKeywords(true))
		_, _ = s.AddCategory(ctx, "Groceries")
		_, _ = s.AddCategory(ctx, "Shopping")
		_, _ = s.AddKeyword(ctx, "Groceries", "Walmart")

		added, err := s.AddKeyword(ctx, "Shopping", "walmart")
		assert.False(t, added)
		var dup *core.DuplicateKeywordError
		require.True(t, errors.As(err, &dup), "got %v", err)
		assert.Equal(t, "Groceries", dup.Owner)
	})
}

func TestRemoveKeywordAndCategory(t *testing.T) {
	s, path := newLoadedStore(t)
	ctx := context.Background()
	_, _ = s.AddCategory(ctx, "Groceries")
	_, _ = s.AddKeyword(ctx, "Groceries", "Walmart")
	_, _ = s.AddKeyword(ctx, "Groceries", "Lidl")

	removed, err := s.RemoveKeyword(ctx, "Groceries", " walmart")
	require.NoError(t, err)
	assert.True(t, removed)
	kws, _ := s.Keywords("Groceries")
	assert.Equal(t, []string{"Lidl"}, kws)

	removed, err = s.RemoveKeyword(ctx, "Groceries", "Aldi")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = s.RemoveCategory(ctx, core.Uncategorized)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = s.RemoveCategory(ctx, " Uncategorized ")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = s.RemoveCategory(ctx, "  Groceries ")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{core.Uncategorized}, readDocument(t, path).Names())

	_, err = s.RemoveCategory(ctx, "Groceries")
	assert.True(t, core.IsUnknownCategory(err))
}

func TestWriteFailureLeavesStateUnchanged(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	s := New(filepath.Join(blocker, "categories.json"))
	added, err := s.AddCategory(context.Background(), "Groceries")

	assert.False(t, added)
	assert.True(t, core.IsPersistenceError(err), "got %v", err)
	assert.Equal(t, []string{core.Uncategorized}, s.Categories())
}

func TestRenameFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.json")
	s := New(path)
	ctx := context.Background()

	_, err := s.AddCategory(ctx, "Groceries")
	require.NoError(t, err)

	// A non-empty directory at the document path makes the rename fail.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "occupied"), 0o755))

	added, err := s.AddCategory(ctx, "Rent")
	assert.False(t, added)
	assert.True(t, core.IsPersistenceError(err), "got %v", err)
	assert.Equal(t, []string{core.Uncategorized, "Groceries"}, s.Categories())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be removed")
}

func TestSaveAndReload(t *testing.T) {
	s, path := newLoadedStore(t)
	ctx := context.Background()
	_, _ = s.AddCategory(ctx, "Rent")
	_, _ = s.AddCategory(ctx, "Groceries")
	_, _ = s.AddKeyword(ctx, "Groceries", "Walmart")
	require.NoError(t, s.Save(ctx))

	reloaded := New(path)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, s.Rules(), reloaded.Rules())
}

func TestRulesReturnsCopy(t *testing.T) {
	s, _ := newLoadedStore(t)
	ctx := context.Background()
	_, _ = s.AddCategory(ctx, "Groceries")
	_, _ = s.AddKeyword(ctx, "Groceries", "Walmart")

	rules := s.Rules()
	rules[1].Keywords[0] = "changed"
	kws, _ := s.Keywords("Groceries")
	assert.Equal(t, []string{"Walmart"}, kws)
}

func TestNotifier(t *testing.T) {
	n := &recordingNotifier{err: errors.New("broker down")}
	s, _ := newLoadedStore(t, WithNotifier(n))
	ctx := context.Background()

	added, err := s.AddCategory(ctx, "Groceries")
	require.NoError(t, err, "notifier failures must not fail the mutation")
	assert.True(t, added)
	_, _ = s.AddKeyword(ctx, "Groceries", "Walmart")
	_, _ = s.AddKeyword(ctx, "Groceries", "walmart") // no-op, no event

	require.Len(t, n.events, 2)
	assert.Equal(t, core.CategoryAdded, n.events[0].Type)
	assert.Equal(t, core.KeywordAdded, n.events[1].Type)
	assert.Equal(t, "Walmart", n.events[1].Keyword)
	assert.NotEmpty(t, n.events[1].ID)
	assert.False(t, n.events[1].Timestamp.IsZero())
}
