package models

import (
	"errors"
	"fmt"
)

// Contract-violation errors. These indicate a programming error by the
// caller and are always fatal, regardless of the query's ThrowErrors
// policy.
var (
	// ErrNoExpressions is returned when a query is submitted with an
	// empty expression list.
	ErrNoExpressions = errors.New("query has no path expressions")

	// ErrBadQuery wraps malformed query input, such as an unparseable
	// size spec.
	ErrBadQuery = errors.New("malformed query")

	// ErrGlobstarCombined is returned when a ** appears in a segment
	// together with other characters.
	ErrGlobstarCombined = errors.New("globstar must be a whole path segment")

	// ErrGlobstarCount is returned when an expression contains more
	// than one ** segment.
	ErrGlobstarCount = errors.New("at most one globstar per expression")

	// ErrBadPattern is returned for glob syntax errors such as an
	// unbalanced character class.
	ErrBadPattern = errors.New("malformed glob pattern")
)

// ContentReadError reports that the content scanner could not read a
// file's bytes. It is distinct from a zero-match scan so callers can
// tell "no matches" apart from "could not look".
type ContentReadError struct {
	Path string
	Err  error
}

func (e *ContentReadError) Error() string {
	return fmt.Sprintf("read content of %s: %v", e.Path, e.Err)
}

func (e *ContentReadError) Unwrap() error { return e.Err }
