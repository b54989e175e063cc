package core

import (
	"errors"
	"fmt"
	"strings"
)

// SchemaError reports missing required columns in a statement header.
type SchemaError struct {
	Missing []string
	Msg     string
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("schema: missing required columns: %s", strings.Join(e.Missing, ", "))
	}
	return "schema: " + e.Msg
}

// ParseError reports a malformed value. Line is the 1-based line in the input,
// the header being line 1.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse: line %d, column %q", e.Line, e.Column)
	if e.Value != "" {
		msg += fmt.Sprintf(", value %q", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.Category)
}

// PersistenceError wraps I/O or encoding failures on the categories document.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// DuplicateKeywordError is returned in strict mode when a keyword is already
// claimed by another category.
type DuplicateKeywordError struct {
	Keyword  string
	Category string
	Owner    string
}

func (e *DuplicateKeywordError) Error() string {
	return fmt.Sprintf("keyword %q for %q already belongs to %q", e.Keyword, e.Category, e.Owner)
}

func IsSchemaError(err error) bool {
	var target *SchemaError
	return errors.As(err, &target)
}

func IsParseError(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

func IsUnknownCategory(err error) bool {
	var target *UnknownCategoryError
	return errors.As(err, &target)
}

func IsPersistenceError(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}

func IsDuplicateKeyword(err error) bool {
	var target *DuplicateKeywordError
	return errors.As(err, &target)
}
