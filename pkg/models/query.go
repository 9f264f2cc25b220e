package models

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Match is one occurrence of a content pattern in one file.
type Match struct {
	// Entry is the file the match was found in.
	Entry *Entry
	// Index is the absolute byte offset of the match start.
	Index int
	// Line is 1-based, Column 0-based.
	Line   int
	Column int
	// Text is the matched text; Captures holds any capture groups.
	Text     string
	Captures []string
}

// MatchFunc is invoked once per content match, in file order, during the
// same pass that counts matches.
type MatchFunc func(*Match)

// Query is the composite predicate a walk filters entries against. A
// caller-supplied Query is partially specified; Normalize fills every
// default and parses the size bounds, producing the canonical form the
// engine consumes. A normalized Query is immutable.
type Query struct {
	// Expressions are the path expressions to resolve. The query entry
	// point rejects an empty list.
	Expressions []string

	Recursive        bool
	FollowLinks      bool
	SingleFilesystem bool
	// Buffer selects buffered result delivery (one callback with the
	// whole collection) over streaming (one callback per entry).
	Buffer bool
	// BigInt switches stat numerics to arbitrary precision for the
	// whole traversal.
	BigInt bool
	// ThrowErrors controls failure policy: nil or true aborts a walk on
	// the first probe failure, false converts failures to placeholder
	// entries and continues.
	ThrowErrors *bool

	// Concurrency caps in-flight filesystem probes. Zero or negative
	// means effectively unbounded.
	Concurrency int

	// MinSize/MaxSize accept a plain byte count ("4096") or a sized
	// string ("1KB", "1MiB"). Decimal units are powers of 1000, binary
	// (i) units powers of 1024. Empty means no bound.
	MinSize string
	MaxSize string

	// MinDepth/MaxDepth bound absolute entry depth. Negative means no
	// bound; Normalize maps the zero value of MaxDepth to unbounded.
	MinDepth int
	MaxDepth int

	// Prefix/Suffix filter the entry name. With the corresponding
	// IsRegex flag set the string is compiled as a regular expression,
	// otherwise it is matched literally.
	Prefix        string
	PrefixIsRegex bool
	Suffix        string
	SuffixIsRegex bool

	// Contains is the content pattern; files only. ContainsIsRegex
	// selects regex compilation over literal matching.
	Contains        string
	ContainsIsRegex bool
	// CaseInsensitive and the regex mode flags apply to the content
	// pattern. IgnoreWhitespace (literal patterns only) collapses
	// whitespace runs in the pattern into a one-or-more whitespace
	// match.
	CaseInsensitive  bool
	IgnoreWhitespace bool
	DotAll           bool
	Multiline        bool

	// MinMatches/MaxMatches bound the content match count. MinMatches
	// defaults to 1 when a pattern is present; MaxMatches zero means
	// unbounded.
	MinMatches int
	MaxMatches int
	// OnMatch fires once per content match during evaluation.
	OnMatch MatchFunc

	// Type restricts matches to one entry type; TypeUnknown disables
	// the filter.
	Type EntryType

	// Timestamp bounds; the zero time means unbounded.
	MinAccessTime time.Time
	MaxAccessTime time.Time
	MinModifyTime time.Time
	MaxModifyTime time.Time
	MinChangeTime time.Time
	MaxChangeTime time.Time
	MinBirthTime  time.Time
	MaxBirthTime  time.Time

	normalized   bool
	minSizeBytes int64
	maxSizeBytes int64
	prefixRe     *regexp.Regexp
	suffixRe     *regexp.Regexp
}

// Normalize returns a fully-defaulted copy of q with size strings
// parsed to byte counts and regex-mode patterns compiled. Malformed
// size strings and patterns are contract violations and fail
// immediately; they are never subject to ThrowErrors.
func (q Query) Normalize() (*Query, error) {
	if q.normalized {
		return &q, nil
	}

	q.minSizeBytes = -1
	q.maxSizeBytes = -1
	if q.MinSize != "" {
		n, err := ParseSize(q.MinSize)
		if err != nil {
			return nil, fmt.Errorf("%w: minSize %q: %v", ErrBadQuery, q.MinSize, err)
		}
		q.minSizeBytes = n
	}
	if q.MaxSize != "" {
		n, err := ParseSize(q.MaxSize)
		if err != nil {
			return nil, fmt.Errorf("%w: maxSize %q: %v", ErrBadQuery, q.MaxSize, err)
		}
		q.maxSizeBytes = n
	}

	if q.Prefix != "" && q.PrefixIsRegex {
		re, err := regexp.Compile(q.Prefix)
		if err != nil {
			return nil, fmt.Errorf("%w: prefix pattern %q: %v", ErrBadQuery, q.Prefix, err)
		}
		q.prefixRe = re
	}
	if q.Suffix != "" && q.SuffixIsRegex {
		re, err := regexp.Compile(q.Suffix)
		if err != nil {
			return nil, fmt.Errorf("%w: suffix pattern %q: %v", ErrBadQuery, q.Suffix, err)
		}
		q.suffixRe = re
	}
	if q.Contains != "" && q.ContainsIsRegex {
		// The scanner compiles the pattern again with its option flags;
		// flags never affect validity, so checking the bare pattern here
		// is enough to fail malformed input before any walking starts.
		if _, err := regexp.Compile(q.Contains); err != nil {
			return nil, fmt.Errorf("%w: content pattern %q: %v", ErrBadQuery, q.Contains, err)
		}
	}

	if q.ThrowErrors == nil {
		t := true
		q.ThrowErrors = &t
	}
	if q.MaxDepth <= 0 {
		q.MaxDepth = -1
	}
	if q.MinDepth < 0 {
		q.MinDepth = 0
	}
	if q.Contains != "" && q.MinMatches <= 0 {
		q.MinMatches = 1
	}
	if q.MaxMatches < 0 {
		q.MaxMatches = 0
	}
	if q.Concurrency < 0 {
		q.Concurrency = 0
	}

	q.normalized = true
	return &q, nil
}

// Normalized reports whether this query has been through Normalize.
func (q *Query) Normalized() bool { return q.normalized }

// Throws reports the failure policy of a normalized query.
func (q *Query) Throws() bool {
	return q.ThrowErrors == nil || *q.ThrowErrors
}

// NumericMode returns the stat representation mode the query selects.
func (q *Query) NumericMode() NumericMode {
	if q.BigInt {
		return BigIntMode
	}
	return NumberMode
}

// MinSizeBytes returns the parsed lower size bound, if any.
func (q *Query) MinSizeBytes() (int64, bool) {
	return q.minSizeBytes, q.normalized && q.minSizeBytes >= 0
}

// MaxSizeBytes returns the parsed upper size bound, if any.
func (q *Query) MaxSizeBytes() (int64, bool) {
	return q.maxSizeBytes, q.normalized && q.maxSizeBytes >= 0
}

// HasContentPattern reports whether the query requires a content scan.
func (q *Query) HasContentPattern() bool { return q.Contains != "" }

// PrefixRegexp returns the compiled prefix pattern of a normalized
// query; nil when the prefix is literal or absent.
func (q *Query) PrefixRegexp() *regexp.Regexp { return q.prefixRe }

// SuffixRegexp returns the compiled suffix pattern of a normalized
// query; nil when the suffix is literal or absent.
func (q *Query) SuffixRegexp() *regexp.Regexp { return q.suffixRe }

var decimalUnits = map[string]int{
	"B": 0, "KB": 1, "MB": 2, "GB": 3, "TB": 4,
	"PB": 5, "EB": 6, "ZB": 7, "YB": 8,
}

var binaryUnits = map[string]int{
	"KIB": 1, "MIB": 2, "GIB": 3, "TIB": 4,
	"PIB": 5, "EIB": 6, "ZIB": 7, "YIB": 8,
}

// ParseSize parses a size spec into a byte count. A bare number is
// bytes; otherwise the suffix selects a unit table: decimal units (KB,
// MB, ...) are powers of 1000, binary units (KiB, MiB, ...) powers of
// 1024. The numeric part may be fractional ("1.5MB"). Values that do
// not fit in an int64 are rejected.
func ParseSize(spec string) (int64, error) {
	s := strings.TrimSpace(spec)
	if s == "" {
		return 0, fmt.Errorf("empty size spec")
	}

	split := len(s)
	for split > 0 {
		c := s[split-1]
		if c >= '0' && c <= '9' || c == '.' {
			break
		}
		split--
	}
	num := strings.TrimSpace(s[:split])
	unit := strings.ToUpper(strings.TrimSpace(s[split:]))
	if num == "" {
		return 0, fmt.Errorf("missing number in %q", spec)
	}

	var base float64 = 1000
	exp := 0
	switch {
	case unit == "":
		// plain byte count
	case decimalUnits[unit] > 0 || unit == "B":
		exp = decimalUnits[unit]
	case binaryUnits[unit] > 0:
		base = 1024
		exp = binaryUnits[unit]
	default:
		return 0, fmt.Errorf("unknown unit %q", unit)
	}

	if exp == 0 {
		// No multiplier: require an integral byte count.
		n, err := strconv.ParseInt(num, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid byte count %q", num)
		}
		if n < 0 {
			return 0, fmt.Errorf("negative size %q", spec)
		}
		return n, nil
	}

	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", num)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative size %q", spec)
	}
	v := f * math.Pow(base, float64(exp))
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("size %q overflows", spec)
	}
	return int64(v), nil
}
