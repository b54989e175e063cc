// Package categorizer assigns categories to transactions from keyword rules
// and learns new keywords from manual corrections.
package categorizer

import (
	"context"
	"fmt"
	"log/slog"

	"burnrate/internal/core"
)

// KeywordLearner records a keyword for a category. *categories.Store
// implements it.
type KeywordLearner interface {
	AddKeyword(ctx context.Context, category, keyword string) (bool, error)
}

// Categorize returns a copy of txs with categories assigned from rules.
//
// A transaction matches a rule when its trimmed, lower-cased details equal
// one of the rule's trimmed, lower-cased keywords. Rules are applied in order
// and a later match overwrites an earlier one, so the last matching rule
// wins. Unmatched transactions are Uncategorized.
func Categorize(txs []core.Transaction, rules core.RuleSet) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	for i := range out {
		out[i].Category = core.Uncategorized
	}

	for _, rule := range rules {
		if rule.Name == core.Uncategorized || len(rule.Keywords) == 0 {
			continue
		}
		keys := make(map[string]struct{}, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			keys[core.MatchKey(kw)] = struct{}{}
		}
		for i := range out {
			if _, ok := keys[core.MatchKey(out[i].Details)]; ok {
				out[i].Category = rule.Name
			}
		}
	}
	return out
}

// RecategorizeOne moves tx to newCategory. When the category changes, the
// transaction's details are learned as a keyword of newCategory so future
// statements are categorized the same way. It reports whether a new keyword
// was learned.
//
// The learner is called first; if it fails tx is left untouched.
func RecategorizeOne(ctx context.Context, tx *core.Transaction, newCategory string, learner KeywordLearner) (bool, error) {
	if tx.Category == newCategory {
		return false, nil
	}
	learned, err := learner.AddKeyword(ctx, newCategory, tx.Details)
	if err != nil {
		return false, fmt.Errorf("learn keyword for %q: %w", newCategory, err)
	}

	slog.DebugContext(ctx, "Transaction recategorized",
		"details", tx.Details,
		"from", tx.Category,
		"to", newCategory,
		"learned", learned)

	tx.Category = newCategory
	return learned, nil
}

// Edit is a manual category change of one row.
type Edit struct {
	Row      int    `json:"row"`
	Category string `json:"category"`
}

// Result counts what ApplyEdits changed.
type Result struct {
	Changed int `json:"changed"`
	Learned int `json:"learned"`
}

// ApplyEdits applies edits in order to a copy of txs. It stops at the first
// failing edit and returns the copy with the edits applied so far; keywords
// learned before the failure stay learned.
func ApplyEdits(ctx context.Context, txs []core.Transaction, edits []Edit, learner KeywordLearner) ([]core.Transaction, Result, error) {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)

	var res Result
	for _, e := range edits {
		if e.Row < 0 || e.Row >= len(out) {
			return out, res, fmt.Errorf("edit row %d of %d: %w", e.Row, len(out), core.ErrRowOutOfRange)
		}
		before := out[e.Row].Category
		learned, err := RecategorizeOne(ctx, &out[e.Row], e.Category, learner)
		if err != nil {
			return out, res, fmt.Errorf("edit row %d: %w", e.Row, err)
		}
		if out[e.Row].Category != before {
			res.Changed++
		}
		if learned {
			res.Learned++
		}
	}
	return out, res, nil
}
