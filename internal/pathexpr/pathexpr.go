// Package pathexpr resolves path expressions containing glob wildcards
// into a literal walk prefix plus an anchored match pattern.
package pathexpr

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kristianoye/klf-yap/pkg/models"
)

// Expression is a parsed path expression. A wildcard-free expression
// has an empty Pattern and passes straight through to the walker; a
// wildcard expression splits into the literal prefix to walk and the
// compiled suffix pattern candidates are tested against.
type Expression struct {
	// Raw is the expression as supplied by the caller.
	Raw string
	// Literal is the wildcard-free prefix. For a fully literal
	// expression it is the whole path.
	Literal string
	// Pattern matches the trailing portion of a candidate's full path.
	// nil when the expression has no wildcards.
	Pattern *regexp.Regexp
	// Globstar is set when the expression contains a ** segment, which
	// forces recursive expansion of the literal prefix.
	Globstar bool
}

// HasWildcards reports whether any segment of the expression contains a
// glob metacharacter. A bare ']' counts so that unbalanced character
// classes reach validation instead of passing as literal paths.
func HasWildcards(expr string) bool {
	return strings.ContainsAny(expr, "*?[]")
}

// Parse splits an expression at its first wildcard segment and compiles
// the remainder into an anchored pattern. Globstar misuse (a ** glued
// to other characters, or more than one ** in the expression) is a
// contract violation and fails immediately.
func Parse(expr string) (*Expression, error) {
	if expr == "" {
		return nil, fmt.Errorf("%w: empty expression", models.ErrBadPattern)
	}

	out := &Expression{Raw: expr}
	norm := filepath.ToSlash(expr)
	segments := strings.Split(norm, "/")

	// Globstar contract checks run over the whole expression before
	// any splitting, so a second ** after the first wildcard still
	// fails loudly.
	stars := 0
	for _, seg := range segments {
		if seg == "**" {
			stars++
			continue
		}
		if strings.Contains(seg, "**") {
			return nil, fmt.Errorf("%w: segment %q", models.ErrGlobstarCombined, seg)
		}
	}
	if stars > 1 {
		return nil, fmt.Errorf("%w: %q", models.ErrGlobstarCount, expr)
	}
	out.Globstar = stars == 1

	split := -1
	for i, seg := range segments {
		if HasWildcards(seg) {
			split = i
			break
		}
	}

	if split < 0 {
		out.Literal = filepath.FromSlash(norm)
		return out, nil
	}

	literal := strings.Join(segments[:split], "/")
	if literal == "" {
		if strings.HasPrefix(norm, "/") {
			literal = "/"
		} else {
			literal = "."
		}
	}
	out.Literal = filepath.FromSlash(literal)

	pattern, err := globToRegex(segments[split:])
	if err != nil {
		return nil, err
	}
	out.Pattern = pattern
	return out, nil
}

// Match tests a candidate against the expression's suffix pattern. The
// candidate is identified by the walked root and its own full path; the
// pattern applies to the portion below the root, so prefix directories
// never satisfy wildcard or globstar segments. Wildcard-free
// expressions match every candidate the walker produced for them.
func (x *Expression) Match(rootPath, fullPath string) bool {
	if x.Pattern == nil {
		return true
	}
	root := filepath.ToSlash(rootPath)
	full := filepath.ToSlash(fullPath)
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	// The root itself, and any sibling whose name merely starts with the
	// root's, is never a wildcard candidate.
	rel, ok := strings.CutPrefix(full, root)
	if !ok || rel == "" {
		return false
	}
	return x.Pattern.MatchString(rel)
}

// globToRegex translates the wildcard segments into one regex matched
// against a candidate's root-relative path: the literal prefix was
// already consumed by the walk, so the pattern covers everything below
// it, both ends anchored.
func globToRegex(segments []string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`^`)

	for i, seg := range segments {
		if seg == "**" {
			if i == len(segments)-1 {
				// Trailing globstar: any descendant.
				b.WriteString(`.+`)
			} else {
				// One or more intermediate directory levels. a/**/b
				// matches a/x/b and a/x/y/b but not a/b.
				b.WriteString(`(?:[^/]+/)+`)
			}
			continue
		}
		if err := translateSegment(&b, seg); err != nil {
			return nil, err
		}
		if i < len(segments)-1 {
			b.WriteString(`/`)
		}
	}
	b.WriteString(`$`)

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBadPattern, err)
	}
	return re, nil
}

// translateSegment converts one glob segment to regex syntax:
// `.` becomes a literal, `?` any character, `*` any run, and bracketed
// character classes pass through after a balance check.
func translateSegment(b *strings.Builder, seg string) error {
	inClass := false
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		if inClass {
			if c == ']' {
				inClass = false
			}
			b.WriteByte(c)
			continue
		}
		switch c {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			inClass = true
			b.WriteByte(c)
		case ']':
			return fmt.Errorf("%w: unbalanced ']' in %q", models.ErrBadPattern, seg)
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	if inClass {
		return fmt.Errorf("%w: unbalanced '[' in %q", models.ErrBadPattern, seg)
	}
	return nil
}
