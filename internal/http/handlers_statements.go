package http

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"burnrate/internal/categorizer"
	"burnrate/internal/core"
	applog "burnrate/internal/log"
	"burnrate/internal/statement"
	"burnrate/internal/summary"
)

func (s *Server) handleUploadStatement(w http.ResponseWriter, r *http.Request) {
	source, data, err := readStatement(w, r, s.maxUpload)
	if err != nil {
		respondErr(w, r, applog.OpUpload, err)
		return
	}
	txs, err := statement.LoadBytes(data)
	if err != nil {
		respondErr(w, r, applog.OpUpload, err)
		return
	}

	s.mu.Lock()
	txs = categorizer.Categorize(txs, s.store.Rules())
	s.mu.Unlock()

	st := Statement{
		ID:       uuid.NewString(),
		Source:   source,
		Uploaded: time.Now().UTC(),
		Rows:     txs,
	}
	s.sessions.Set(st.ID, st)

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Statement uploaded",
		applog.NewFields().WithStatement(st.ID, len(txs)).WithOperation(applog.OpUpload).ToSlice()...)
	respondJSON(w, http.StatusCreated, st.view("", false))
}

func (s *Server) handleGetStatement(w http.ResponseWriter, r *http.Request) {
	dir, filter, err := directionParam(r)
	if err != nil {
		respondErr(w, r, applog.OpList, err)
		return
	}
	st, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		respondErr(w, r, applog.OpList, core.ErrStatementNotFound)
		return
	}
	respondJSON(w, http.StatusOK, st.view(dir, filter))
}

func (s *Server) handleDeleteStatement(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.sessions.Get(id); !ok {
		respondErr(w, r, applog.OpRemove, core.ErrStatementNotFound)
		return
	}
	s.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// handleRecategorizeRow moves one row to a new category, learns its details
// as a keyword and re-categorizes the whole table with the updated rules.
// The re-run can move the row again when a later rule also matches; the
// response reports that as overridden.
func (s *Server) handleRecategorizeRow(w http.ResponseWriter, r *http.Request) {
	row, err := rowParam(r)
	if err != nil {
		respondErr(w, r, applog.OpRecategorize, err)
		return
	}
	var body struct {
		Category string `json:"category"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondErr(w, r, applog.OpRecategorize, err)
		return
	}
	category := strings.TrimSpace(body.Category)
	if category == "" {
		respondErr(w, r, applog.OpRecategorize, fmt.Errorf("%w: category is required", errBadRequest))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var learned bool
	st, ok, err := s.sessions.Update(r.PathValue("id"), func(st Statement) (Statement, error) {
		if row < 0 || row >= len(st.Rows) {
			return st, fmt.Errorf("row %d of %d: %w", row, len(st.Rows), core.ErrRowOutOfRange)
		}
		rows := slices.Clone(st.Rows)
		var err error
		learned, err = categorizer.RecategorizeOne(r.Context(), &rows[row], category, s.store)
		if err != nil {
			return st, err
		}
		st.Rows = categorizer.Categorize(rows, s.store.Rules())
		return st, nil
	})
	if err != nil {
		respondErr(w, r, applog.OpRecategorize, err)
		return
	}
	if !ok {
		respondErr(w, r, applog.OpRecategorize, core.ErrStatementNotFound)
		return
	}

	final := st.Rows[row].Category
	respondJSON(w, http.StatusOK, map[string]any{
		"row":        row,
		"category":   final,
		"overridden": final != category,
		"learned":    learned,
		"statement":  st.view("", false),
	})
}

// handleApplyEdits applies a batch of row edits. On failure the table is
// left as it was, but keywords learned before the failing edit are kept.
func (s *Server) handleApplyEdits(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Edits []categorizer.Edit `json:"edits"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondErr(w, r, applog.OpRecategorize, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var res categorizer.Result
	st, ok, err := s.sessions.Update(r.PathValue("id"), func(st Statement) (Statement, error) {
		out, applied, err := categorizer.ApplyEdits(r.Context(), st.Rows, body.Edits, s.store)
		res = applied
		if err != nil {
			return st, err
		}
		st.Rows = categorizer.Categorize(out, s.store.Rules())
		return st, nil
	})
	if err != nil {
		respondErr(w, r, applog.OpRecategorize, err)
		return
	}
	if !ok {
		respondErr(w, r, applog.OpRecategorize, core.ErrStatementNotFound)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"changed":   res.Changed,
		"learned":   res.Learned,
		"statement": st.view("", false),
	})
}

type summaryView struct {
	ID          string             `json:"id"`
	Direction   core.Direction     `json:"direction,omitempty"`
	Rows        []core.SummaryRow  `json:"rows"`
	Breakdown   []core.Share       `json:"breakdown"`
	DebitTotal  decimal.Decimal    `json:"debit_total"`
	CreditTotal decimal.Decimal    `json:"credit_total"`
	Balance     decimal.Decimal    `json:"balance"`
	Monthly     []core.MonthTotals `json:"monthly"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	dir, filter, err := directionParam(r)
	if err != nil {
		respondErr(w, r, applog.OpSummarize, err)
		return
	}
	st, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		respondErr(w, r, applog.OpSummarize, core.ErrStatementNotFound)
		return
	}

	txs := st.Rows
	if filter {
		txs = summary.Filter(txs, dir)
	}
	rows := summary.Summarize(txs)
	respondJSON(w, http.StatusOK, summaryView{
		ID:          st.ID,
		Direction:   dir,
		Rows:        rows,
		Breakdown:   summary.Breakdown(rows),
		DebitTotal:  summary.TotalByDirection(st.Rows, core.Debit),
		CreditTotal: summary.TotalByDirection(st.Rows, core.Credit),
		Balance:     summary.Balance(st.Rows),
		Monthly:     summary.Monthly(st.Rows),
	})
}
