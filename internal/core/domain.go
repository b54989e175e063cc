package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Uncategorized is the fallback category. It always exists and never carries keywords.
const Uncategorized = "Uncategorized"

// DateLayout is the statement date format, e.g. "05 Jan 2024".
const DateLayout = "02 Jan 2006"

const (
	Debit  Direction = "Debit"
	Credit Direction = "Credit"
)

type (
	// Direction tells whether money left (Debit) or entered (Credit) the account.
	Direction string

	Transaction struct {
		Date      time.Time       `json:"date"`
		Details   string          `json:"details"`
		Amount    decimal.Decimal `json:"amount"`
		Direction Direction       `json:"direction"`
		Category  string          `json:"category"`
	}

	// Rule binds a category name to the keywords that select it.
	Rule struct {
		Name     string   `json:"name"`
		Keywords []string `json:"keywords"`
	}

	// RuleSet is an ordered list of rules. Order is insertion order and decides
	// which rule wins when a description matches more than one.
	RuleSet []Rule

	RuleEventType string

	// RuleEvent describes a persisted change to the rule set.
	RuleEvent struct {
		ID        string        `json:"id"`
		Type      RuleEventType `json:"type"`
		Category  string        `json:"category"`
		Keyword   string        `json:"keyword,omitempty"`
		Timestamp time.Time     `json:"timestamp"`
	}
)

const (
	CategoryAdded   RuleEventType = "category_added"
	CategoryRemoved RuleEventType = "category_removed"
	KeywordAdded    RuleEventType = "keyword_added"
	KeywordRemoved  RuleEventType = "keyword_removed"
)

var (
	ErrEmptyDetails      = errors.New("empty details")
	ErrNegativeAmount    = errors.New("negative amount")
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrRowOutOfRange     = errors.New("row out of range")
	ErrStatementNotFound = errors.New("statement not found")
)

// ParseDirection accepts exactly "Debit" or "Credit".
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.TrimSpace(s)); d {
	case Debit, Credit:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

func (d Direction) Valid() bool {
	return d == Debit || d == Credit
}

func (d Direction) String() string {
	return string(d)
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if strings.TrimSpace(t.Details) == "" {
		return ErrEmptyDetails
	}
	if t.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if !t.Direction.Valid() {
		return ErrInvalidDirection
	}
	return nil
}

// MatchKey is the normalized form used for keyword comparison.
func MatchKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DefaultRules returns the initial rule set: only the fallback category.
func DefaultRules() RuleSet {
	return RuleSet{{Name: Uncategorized, Keywords: []string{}}}
}

// Index returns the position of the named rule or -1.
func (rs RuleSet) Index(name string) int {
	for i, r := range rs {
		if r.Name == name {
			return i
		}
	}
	return -1
}

func (rs RuleSet) Names() []string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.Name
	}
	return names
}

// Clone returns a deep copy.
func (rs RuleSet) Clone() RuleSet {
	out := make(RuleSet, len(rs))
	for i, r := range rs {
		kws := make([]string, len(r.Keywords))
		copy(kws, r.Keywords)
		out[i] = Rule{Name: r.Name, Keywords: kws}
	}
	return out
}

// Normalize brings a decoded rule set back to the store's invariants. Names
// and keywords are trimmed and blanks dropped. Rules whose names collide after
// trimming are merged at the first position, keeping each keyword once
// (compared case-insensitively). Uncategorized exists (prepended when
// missing) and has no keywords.
func (rs RuleSet) Normalize() RuleSet {
	out := make(RuleSet, 0, len(rs)+1)
	for _, r := range rs {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		idx := out.Index(name)
		if idx < 0 {
			out = append(out, Rule{Name: name, Keywords: []string{}})
			idx = len(out) - 1
		}
		out[idx].Keywords = mergeKeywords(out[idx].Keywords, r.Keywords)
	}

	idx := out.Index(Uncategorized)
	if idx < 0 {
		out = append(DefaultRules(), out...)
	} else {
		out[idx].Keywords = []string{}
	}
	return out
}

func mergeKeywords(dst, src []string) []string {
	for _, kw := range src {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := MatchKey(kw)
		dup := false
		for _, have := range dst {
			if MatchKey(have) == key {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, kw)
		}
	}
	return dst
}

// Owner returns the first category other than skip that already holds keyword,
// compared case-insensitively.
func (rs RuleSet) Owner(keyword, skip string) (string, bool) {
	key := MatchKey(keyword)
	for _, r := range rs {
		if r.Name == skip {
			continue
		}
		for _, kw := range r.Keywords {
			if MatchKey(kw) == key {
				return r.Name, true
			}
		}
	}
	return "", false
}
