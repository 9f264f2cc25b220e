// Package finder is the query engine: it resolves path expressions
// through the walker, filters discovered entries through the predicate
// evaluator, and delivers results streamed or buffered.
package finder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kristianoye/klf-yap/internal/pathexpr"
	"github.com/kristianoye/klf-yap/internal/predicate"
	"github.com/kristianoye/klf-yap/internal/walker"
	"github.com/kristianoye/klf-yap/pkg/models"
	"go.uber.org/zap"
)

// StreamFunc receives one result at a time. entry is non-nil for every
// call; err is non-nil when the entry is a placeholder or its content
// scan failed under the suppress policy.
type StreamFunc func(err error, entry *models.Entry)

// Stats summarizes one query run.
type Stats struct {
	RunID        string        `json:"run_id"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     time.Duration `json:"duration"`
	TotalEntries int           `json:"total_entries"`
	TotalDirs    int           `json:"total_dirs"`
	TotalFiles   int           `json:"total_files"`
	Placeholders int           `json:"placeholders"`
	Matched      int           `json:"matched"`
	MatchedBytes int64         `json:"matched_bytes"`
}

// Result is a buffered query outcome: every matching entry plus any
// entry-level errors that were suppressed rather than thrown.
type Result struct {
	Entries []*models.Entry `json:"entries"`
	Errors  []error         `json:"-"`
	Stats   Stats           `json:"stats"`
}

// Finder runs queries. One Finder may serve many queries concurrently;
// it holds no per-query state.
type Finder struct {
	logger *zap.Logger
	eval   *predicate.Evaluator
}

// New creates a finder.
func New(logger *zap.Logger) *Finder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finder{
		logger: logger,
		eval:   predicate.New(logger),
	}
}

// Find runs the query buffered: the complete matching collection comes
// back in one Result. Entry-level failures under the suppress policy
// are aggregated in Result.Errors.
func (f *Finder) Find(ctx context.Context, q models.Query) (*Result, error) {
	res := &Result{}
	res.Stats.RunID = uuid.NewString()
	res.Stats.StartTime = time.Now()

	err := f.run(ctx, q, func(entryErr error, entry *models.Entry) {
		if entryErr != nil {
			res.Errors = append(res.Errors, entryErr)
			if !entry.IsPlaceholder() {
				// A suppressed scan failure is not a match; only
				// placeholders join the collection alongside matches.
				return
			}
		}
		res.Entries = append(res.Entries, entry)
		tally(&res.Stats, entry)
	})
	if err != nil {
		return nil, err
	}

	res.Stats.EndTime = time.Now()
	res.Stats.Duration = res.Stats.EndTime.Sub(res.Stats.StartTime)

	f.logger.Info("query complete",
		zap.String("run_id", res.Stats.RunID),
		zap.Int("matched", res.Stats.Matched),
		zap.Duration("duration", res.Stats.Duration))

	return res, nil
}

// Stream runs the query streaming: cb fires once per matching entry, in
// traversal order, as soon as that entry's subtree has resolved.
func (f *Finder) Stream(ctx context.Context, q models.Query, cb StreamFunc) error {
	return f.run(ctx, q, cb)
}

// run resolves every expression and pushes matches to emit.
//
// Delivery order within one expression is pre-order: a directory is
// emitted before its contents, siblings in lexical name order. This
// holds for every run against an unchanged filesystem.
func (f *Finder) run(ctx context.Context, q models.Query, emit StreamFunc) error {
	nq, err := q.Normalize()
	if err != nil {
		return err
	}
	if len(nq.Expressions) == 0 {
		return models.ErrNoExpressions
	}

	w := walker.New(f.logger, nq.Concurrency)

	for _, raw := range nq.Expressions {
		expr, err := pathexpr.Parse(raw)
		if err != nil {
			// Malformed expressions are contract violations, never
			// subject to the throw policy.
			return err
		}
		if err := f.runExpression(ctx, w, nq, expr, emit); err != nil {
			return err
		}
	}
	return nil
}

// runExpression walks one expression's literal prefix and filters the
// discovered candidates.
func (f *Finder) runExpression(ctx context.Context, w *walker.Walker, q *models.Query, expr *pathexpr.Expression, emit StreamFunc) error {
	walkQuery := *q
	if expr.Globstar {
		// Globstar expands the literal prefix recursively no matter
		// what the query's own recursive flag says.
		walkQuery.Recursive = true
	}

	root, err := w.Stat(ctx, expr.Literal, &walkQuery)
	if err != nil {
		return err
	}

	var candidates []*models.Entry
	switch {
	case expr.Pattern == nil:
		// Literal path: the path itself plus whatever the walk
		// expanded beneath it.
		candidates = append([]*models.Entry{root}, root.FlatChildren()...)
	case expr.Globstar || q.Recursive:
		candidates = root.FlatChildren()
	default:
		// One level of implicit expansion below the literal prefix.
		candidates = root.Children
	}

	for _, entry := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsPlaceholder() {
			// Suppressed probe failures surface through the error
			// channel; the throw policy aborted the walk long before
			// this point.
			emit(entry.Err, entry)
			continue
		}
		if !expr.Match(root.FullPath, entry.FullPath) {
			continue
		}

		ok, _, err := f.eval.Match(entry, q)
		if err != nil {
			if q.Throws() {
				return err
			}
			emit(err, entry)
			continue
		}
		if ok {
			emit(nil, entry)
		}
	}
	return nil
}

func tally(s *Stats, entry *models.Entry) {
	s.TotalEntries++
	switch {
	case entry.IsPlaceholder():
		s.Placeholders++
	case entry.IsDirectory():
		s.TotalDirs++
	case entry.IsFile():
		s.TotalFiles++
		s.Matched++
		s.MatchedBytes += entry.Stat.Size.Int64()
		return
	}
	if !entry.IsPlaceholder() {
		s.Matched++
	}
}
