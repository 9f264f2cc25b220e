package finder

import (
	"github.com/kristianoye/klf-yap/internal/predicate"
	"github.com/kristianoye/klf-yap/pkg/models"
	"go.uber.org/zap"
)

// Collection is a materialized result set that can be narrowed again
// without re-walking the filesystem. Because predicate evaluation is a
// pure function of entry and query, refining a collection reproduces
// exactly the decisions a fresh walk would have made for the same
// entries.
type Collection struct {
	Entries []*models.Entry

	eval *predicate.Evaluator
}

// NewCollection wraps a set of already-walked entries.
func NewCollection(logger *zap.Logger, entries []*models.Entry) *Collection {
	return &Collection{
		Entries: entries,
		eval:    predicate.New(logger),
	}
}

// Collect turns a buffered result into a refinable collection.
func (r *Result) Collect(logger *zap.Logger) *Collection {
	return NewCollection(logger, r.Entries)
}

// Refine filters the collection against a new query, returning a new
// collection. No directory is re-listed and no path is re-stat'ed; a
// content pattern in the query still reads file bytes, since match
// counting cannot come from stat data. Placeholder entries never
// survive a refine.
func (c *Collection) Refine(q models.Query) (*Collection, error) {
	nq, err := q.Normalize()
	if err != nil {
		return nil, err
	}

	out := &Collection{eval: c.eval}
	for _, entry := range c.Entries {
		if entry.IsPlaceholder() {
			continue
		}
		ok, _, err := c.eval.Match(entry, nq)
		if err != nil {
			if nq.Throws() {
				return nil, err
			}
			continue
		}
		if ok {
			out.Entries = append(out.Entries, entry)
		}
	}
	return out, nil
}

// Len returns the number of entries in the collection.
func (c *Collection) Len() int { return len(c.Entries) }
