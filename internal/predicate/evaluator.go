// Package predicate decides whether entries satisfy a query. Evaluation
// is two-phase: cheap structural checks first, the content scan only
// when everything structural already passed.
package predicate

import (
	"regexp"
	"strings"
	"time"

	"github.com/kristianoye/klf-yap/internal/content"
	"github.com/kristianoye/klf-yap/pkg/models"
	"go.uber.org/zap"
)

// Reason names the first criterion an entry failed. Empty means the
// entry matched.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonSize       Reason = "size"
	ReasonMinDepth   Reason = "minDepth"
	ReasonMaxDepth   Reason = "maxDepth"
	ReasonSuffix     Reason = "suffix"
	ReasonPrefix     Reason = "prefix"
	ReasonAccessTime Reason = "accessTime"
	ReasonModifyTime Reason = "modifyTime"
	ReasonChangeTime Reason = "changeTime"
	ReasonBirthTime  Reason = "birthTime"
	ReasonType       Reason = "type"
	ReasonMinMatches Reason = "minMatches"
	ReasonMaxMatches Reason = "maxMatches"
)

// Evaluator applies a query's predicate set to entries. Evaluation is a
// pure function of (entry, query), so re-filtering an already
// materialized collection reproduces walk-time decisions.
type Evaluator struct {
	logger *zap.Logger
}

// New creates an evaluator.
func New(logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{logger: logger}
}

// MatchSimple runs the cheap structural checks only, short-circuiting
// on the first failure. The evaluation order is a contract: size,
// minDepth, maxDepth, suffix, prefix. The reported reason always names
// the first criterion in that order that failed.
func (e *Evaluator) MatchSimple(entry *models.Entry, q *models.Query) (bool, Reason) {
	// Size bounds apply to files only.
	if entry.IsFile() {
		if min, ok := q.MinSizeBytes(); ok && entry.Stat.Size.Cmp(min) < 0 {
			return false, ReasonSize
		}
		if max, ok := q.MaxSizeBytes(); ok && entry.Stat.Size.Cmp(max) > 0 {
			return false, ReasonSize
		}
	}

	if q.MinDepth > 0 && entry.Depth < q.MinDepth {
		return false, ReasonMinDepth
	}
	if q.MaxDepth >= 0 && entry.Depth > q.MaxDepth {
		return false, ReasonMaxDepth
	}

	if q.Suffix != "" && !matchName(entry.Name, q.Suffix, q.SuffixRegexp(), strings.HasSuffix) {
		return false, ReasonSuffix
	}
	if q.Prefix != "" && !matchName(entry.Name, q.Prefix, q.PrefixRegexp(), strings.HasPrefix) {
		return false, ReasonPrefix
	}

	return true, ReasonNone
}

// Match runs the full predicate set: the structural checks of
// MatchSimple, then the timestamp bounds and the type filter, and
// finally a content scan when the query carries a pattern (files only).
// The per-match callback fires once per content match, in file order,
// during the same pass that counts matches. The returned error is
// non-nil only for content read failures.
func (e *Evaluator) Match(entry *models.Entry, q *models.Query) (bool, Reason, error) {
	if ok, reason := e.MatchSimple(entry, q); !ok {
		return false, reason, nil
	}

	t := entry.Stat.Times
	if !within(t.Access, q.MinAccessTime, q.MaxAccessTime) {
		return false, ReasonAccessTime, nil
	}
	if !within(t.Modify, q.MinModifyTime, q.MaxModifyTime) {
		return false, ReasonModifyTime, nil
	}
	if !within(t.Change, q.MinChangeTime, q.MaxChangeTime) {
		return false, ReasonChangeTime, nil
	}
	if !within(t.Birth, q.MinBirthTime, q.MaxBirthTime) {
		return false, ReasonBirthTime, nil
	}

	if q.Type != models.TypeUnknown && !isType(entry, q.Type) {
		return false, ReasonType, nil
	}

	if !q.HasContentPattern() {
		return true, ReasonNone, nil
	}
	if !entry.IsFile() {
		// Content patterns only ever match files.
		return false, ReasonMinMatches, nil
	}

	return e.matchContent(entry, q)
}

// matchContent drives the scanner to completion, counting matches and
// firing the per-match callback.
func (e *Evaluator) matchContent(entry *models.Entry, q *models.Query) (bool, Reason, error) {
	sc, err := content.NewScannerFromQuery(entry, q)
	if err != nil {
		return false, ReasonNone, err
	}

	for sc.Scan() {
		if q.OnMatch != nil {
			q.OnMatch(sc.Match())
		}
	}
	if err := sc.Err(); err != nil {
		e.logger.Debug("content scan failed",
			zap.String("path", entry.FullPath),
			zap.Error(err))
		return false, ReasonNone, err
	}

	count := sc.Count()
	if count < q.MinMatches {
		return false, ReasonMinMatches, nil
	}
	if q.MaxMatches > 0 && count > q.MaxMatches {
		return false, ReasonMaxMatches, nil
	}
	return true, ReasonNone, nil
}

// matchName applies a name criterion: the regexp compiled during query
// normalization when present, a literal comparison otherwise.
func matchName(name, pattern string, re *regexp.Regexp, literal func(string, string) bool) bool {
	if re != nil {
		return re.MatchString(name)
	}
	return literal(name, pattern)
}

// within checks a timestamp against optional min/max bounds; the zero
// time means unbounded.
func within(ts, min, max time.Time) bool {
	if !min.IsZero() && ts.Before(min) {
		return false
	}
	if !max.IsZero() && ts.After(max) {
		return false
	}
	return true
}

// isType applies the query's type filter, honoring transparent link
// semantics: a link to a directory satisfies both the link and the
// directory filter.
func isType(entry *models.Entry, t models.EntryType) bool {
	switch t {
	case models.TypeFile:
		return entry.IsFile()
	case models.TypeDirectory:
		return entry.IsDirectory()
	case models.TypeLink:
		return entry.IsSymbolicLink()
	case models.TypeSocket:
		return entry.IsSocket()
	case models.TypeFIFO:
		return entry.IsFIFO()
	case models.TypeBlockDevice:
		return entry.IsBlockDevice()
	case models.TypeCharacterDevice:
		return entry.IsCharacterDevice()
	default:
		return true
	}
}
