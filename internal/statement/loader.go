// Package statement loads bank-statement CSV exports into transactions.
package statement

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"burnrate/internal/core"
)

// Required header names.
const (
	ColDate      = "Date"
	ColDetails   = "Details"
	ColAmount    = "Amount"
	ColDirection = "Debit/Credit"
)

var requiredColumns = []string{ColDate, ColDetails, ColAmount, ColDirection}

// dateLayouts are tried in order; the second accepts single-digit days.
var dateLayouts = []string{core.DateLayout, "2 Jan 2006"}

// Load parses a statement. It is all-or-nothing: on the first malformed row
// it returns nil and an error describing that row.
//
// Every returned transaction is Uncategorized.
func Load(r io.Reader) ([]core.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &core.SchemaError{Msg: "empty input", Missing: requiredColumns}
	}
	if err != nil {
		return nil, csvError(err)
	}

	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	transactions := []core.Transaction{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		line, _ := reader.FieldPos(0)

		t, err := mapToTransaction(record, cols, line)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	return transactions, nil
}

// LoadBytes is Load over an in-memory document.
func LoadBytes(data []byte) ([]core.Transaction, error) {
	return Load(bytes.NewReader(data))
}

func parseHeaders(row []string) []string {
	headers := make([]string, len(row))
	for i, h := range row {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		headers[i] = strings.TrimSpace(h)
	}
	return headers
}

// indexColumns maps each required column to its position. The first
// occurrence of a repeated header wins.
func indexColumns(row []string) (map[string]int, error) {
	pos := make(map[string]int, len(row))
	for i, h := range parseHeaders(row) {
		if _, seen := pos[h]; !seen {
			pos[h] = i
		}
	}

	var missing []string
	cols := make(map[string]int, len(requiredColumns))
	for _, name := range requiredColumns {
		i, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols[name] = i
	}
	if len(missing) > 0 {
		return nil, &core.SchemaError{Missing: missing}
	}
	return cols, nil
}

func mapToTransaction(record []string, cols map[string]int, line int) (core.Transaction, error) {
	field := func(name string) (string, error) {
		i := cols[name]
		if i >= len(record) {
			return "", &core.ParseError{Line: line, Column: name, Err: errors.New("missing field")}
		}
		return record[i], nil
	}

	dateStr, err := field(ColDate)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseDate(dateStr)
	if err != nil {
		return core.Transaction{}, &core.ParseError{Line: line, Column: ColDate, Value: dateStr, Err: err}
	}

	details, err := field(ColDetails)
	if err != nil {
		return core.Transaction{}, err
	}

	amountStr, err := field(ColAmount)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(amountStr)
	if err != nil {
		return core.Transaction{}, &core.ParseError{Line: line, Column: ColAmount, Value: amountStr, Err: err}
	}

	dirStr, err := field(ColDirection)
	if err != nil {
		return core.Transaction{}, err
	}
	direction, err := core.ParseDirection(dirStr)
	if err != nil {
		return core.Transaction{}, &core.ParseError{Line: line, Column: ColDirection, Value: dirStr, Err: core.ErrInvalidDirection}
	}

	tx := core.Transaction{
		Date:      date,
		Details:   details,
		Amount:    amount,
		Direction: direction,
		Category:  core.Uncategorized,
	}
	// Details is the matching key, so a blank one cannot be categorized.
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, &core.ParseError{Line: line, Column: ColDetails, Value: details, Err: err}
	}
	return tx, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range dateLayouts {
		d, err := time.Parse(layout, s)
		if err == nil {
			return d, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, fmt.Errorf("want %q format: %w", core.DateLayout, firstErr)
}

// csvError converts a reader failure into a ParseError carrying its line.
func csvError(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &core.ParseError{Line: perr.Line, Column: fmt.Sprintf("#%d", perr.Column), Err: perr.Err}
	}
	return &core.ParseError{Err: err}
}
