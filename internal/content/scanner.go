package content

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/kristianoye/klf-yap/pkg/models"
)

// Options control how a content pattern is compiled.
type Options struct {
	// Literal treats the pattern as a plain string: regex
	// metacharacters are escaped before compilation.
	Literal bool
	// IgnoreWhitespace (literal patterns only) collapses whitespace
	// runs in the pattern into a one-or-more whitespace match.
	IgnoreWhitespace bool
	CaseInsensitive  bool
	DotAll           bool
	Multiline        bool
}

var wsRun = regexp.MustCompile(`[ \t\r\n]+`)

// Compile turns a pattern plus options into a regexp. Literal patterns
// are quoted first; flag options become inline regex flags.
func Compile(pattern string, opts Options) (*regexp.Regexp, error) {
	expr := pattern
	if opts.Literal {
		expr = regexp.QuoteMeta(pattern)
		if opts.IgnoreWhitespace {
			// QuoteMeta leaves whitespace untouched, so runs in the
			// quoted form are still literal whitespace.
			expr = wsRun.ReplaceAllString(expr, `\s+`)
		}
	}

	flags := ""
	if opts.CaseInsensitive {
		flags += "i"
	}
	if opts.DotAll {
		flags += "s"
	}
	if opts.Multiline {
		flags += "m"
	}
	if flags != "" {
		expr = "(?" + flags + ")" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile content pattern %q: %w", pattern, err)
	}
	return re, nil
}

// Scanner is an incremental regex scan over one file's text. It follows
// the bufio.Scanner idiom:
//
//	sc := content.NewScanner(entry, re)
//	for sc.Scan() {
//		m := sc.Match()
//	}
//	if err := sc.Err(); err != nil { ... }
//
// The file is read in full on the first Scan call; every later call
// only advances the match position. Position tracking decodes each rune
// of the file exactly once across the whole scan, so total cost is
// bounded by file length regardless of match count. Columns count
// characters, not bytes.
type Scanner struct {
	entry *models.Entry
	re    *regexp.Regexp

	text   string
	digest uint64
	loaded bool
	err    error

	pos     int // byte offset where the next search begins
	prevEnd int // byte offset where the previous match ended
	scanned int // bytes accounted for in line/col
	line    int // 1-based line at offset scanned
	col     int // 0-based column at offset scanned
	done    bool
	match   *models.Match
	count   int
}

// NewScanner binds a scanner to one entry and a compiled pattern.
func NewScanner(entry *models.Entry, re *regexp.Regexp) *Scanner {
	return &Scanner{entry: entry, re: re, line: 1, prevEnd: -1}
}

// NewScannerFromQuery compiles the query's content pattern and binds a
// scanner to the entry.
func NewScannerFromQuery(entry *models.Entry, q *models.Query) (*Scanner, error) {
	re, err := Compile(q.Contains, Options{
		Literal:          !q.ContainsIsRegex,
		IgnoreWhitespace: q.IgnoreWhitespace,
		CaseInsensitive:  q.CaseInsensitive,
		DotAll:           q.DotAll,
		Multiline:        q.Multiline,
	})
	if err != nil {
		return nil, err
	}
	return NewScanner(entry, re), nil
}

// Scan advances to the next match. It returns false when the scan is
// exhausted or the file could not be read; Err distinguishes the two.
func (s *Scanner) Scan() bool {
	if s.err != nil || s.done {
		return false
	}
	if !s.loaded {
		fc, err := ReadFile(s.entry)
		if err != nil {
			// A failed read is terminal: the scanner reports no
			// matches from here on.
			s.err = err
			s.done = true
			return false
		}
		s.text = string(fc.Data)
		s.digest = fc.Digest
		s.loaded = true
	}

	for {
		if s.pos > len(s.text) {
			s.done = true
			s.match = nil
			return false
		}

		base := s.pos
		loc := s.re.FindStringSubmatchIndex(s.text[base:])
		if loc == nil {
			s.done = true
			s.match = nil
			return false
		}

		start := base + loc[0]
		end := base + loc[1]

		if end == start {
			// Empty match: step past one rune so the scan advances.
			_, width := utf8.DecodeRuneInString(s.text[start:])
			if width == 0 {
				width = 1
			}
			s.pos = start + width
			if start == s.prevEnd {
				// An empty match abutting the previous match is not a
				// new occurrence, same as a full-text FindAll scan.
				continue
			}
		} else {
			s.pos = end
		}
		s.prevEnd = end

		s.advanceTo(start)

		captures := make([]string, 0, len(loc)/2-1)
		for i := 2; i < len(loc); i += 2 {
			if loc[i] < 0 {
				captures = append(captures, "")
				continue
			}
			captures = append(captures, s.text[base+loc[i]:base+loc[i+1]])
		}

		// Every match is a fresh value; previously returned matches are
		// never mutated.
		s.match = &models.Match{
			Entry:    s.entry,
			Index:    start,
			Line:     s.line,
			Column:   s.col,
			Text:     s.text[start:end],
			Captures: captures,
		}
		s.count++
		return true
	}
}

// advanceTo accounts for the text between the last accounted offset and
// to, updating line and column one rune at a time.
func (s *Scanner) advanceTo(to int) {
	for _, r := range s.text[s.scanned:to] {
		if r == '\n' {
			s.line++
			s.col = 0
		} else {
			s.col++
		}
	}
	s.scanned = to
}

// Match returns the match found by the last successful Scan.
func (s *Scanner) Match() *models.Match { return s.match }

// Err returns the read failure that stopped the scan, if any. A nil
// result after Scan returns false means the text was exhausted.
func (s *Scanner) Err() error { return s.err }

// Count returns the number of matches yielded so far.
func (s *Scanner) Count() int { return s.count }

// Digest returns the xxhash64 of the scanned content, once loaded.
func (s *Scanner) Digest() uint64 { return s.digest }

// Reset clears the cached content and scan position so the same scanner
// can be reused from the start, re-reading the file on the next Scan.
func (s *Scanner) Reset() {
	s.text = ""
	s.digest = 0
	s.loaded = false
	s.err = nil
	s.pos = 0
	s.prevEnd = -1
	s.scanned = 0
	s.line = 1
	s.col = 0
	s.done = false
	s.match = nil
	s.count = 0
}
