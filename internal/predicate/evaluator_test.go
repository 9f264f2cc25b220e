package predicate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kristianoye/klf-yap/pkg/models"
	"github.com/stretchr/testify/require"
)

func fileAt(path string, size int64) *models.Entry {
	stat := models.Stat{Size: models.NewNumeric(size, models.NumberMode)}
	return models.NewEntry(path, models.TypeFile, stat)
}

func normalize(t *testing.T, q models.Query) *models.Query {
	t.Helper()
	nq, err := q.Normalize()
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	return nq
}

func TestMatchSimpleOrder(t *testing.T) {
	eval := New(nil)

	// The entry violates several criteria at once; the reported reason
	// must always be the first in the fixed order
	// size, minDepth, maxDepth, suffix, prefix.
	entry := fileAt("/a/b/tiny.log", 10)

	tests := []struct {
		name   string
		query  models.Query
		reason Reason
	}{
		{
			"size wins over depth and names",
			models.Query{MinSize: "100", MinDepth: 99, Suffix: ".txt", Prefix: "x"},
			ReasonSize,
		},
		{
			"minDepth wins over maxDepth and names",
			models.Query{MinDepth: 99, MaxDepth: 1, Suffix: ".txt"},
			ReasonMinDepth,
		},
		{
			"maxDepth wins over names",
			models.Query{MaxDepth: 1, Suffix: ".txt", Prefix: "x"},
			ReasonMaxDepth,
		},
		{
			"suffix wins over prefix",
			models.Query{Suffix: ".txt", Prefix: "x"},
			ReasonSuffix,
		},
		{
			"prefix last",
			models.Query{Prefix: "x"},
			ReasonPrefix,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.query.Expressions = []string{"/a"}
			ok, reason := eval.MatchSimple(entry, normalize(t, tt.query))
			require.False(t, ok)
			require.Equal(t, tt.reason, reason)
		})
	}
}

func TestMatchSimpleCriteria(t *testing.T) {
	eval := New(nil)
	entry := fileAt("/data/report.txt", 500)

	tests := []struct {
		name  string
		query models.Query
		ok    bool
	}{
		{"no criteria", models.Query{}, true},
		{"size in range", models.Query{MinSize: "100", MaxSize: "1KB"}, true},
		{"too small", models.Query{MinSize: "1KB"}, false},
		{"too big", models.Query{MaxSize: "100"}, false},
		{"depth in range", models.Query{MinDepth: 1, MaxDepth: 3}, true},
		{"too shallow", models.Query{MinDepth: 5}, false},
		{"too deep", models.Query{MaxDepth: 1}, false},
		{"suffix literal", models.Query{Suffix: ".txt"}, true},
		{"suffix mismatch", models.Query{Suffix: ".log"}, false},
		{"suffix regex", models.Query{Suffix: `\.(txt|md)$`, SuffixIsRegex: true}, true},
		{"prefix literal", models.Query{Prefix: "rep"}, true},
		{"prefix mismatch", models.Query{Prefix: "xyz"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.query.Expressions = []string{"/data"}
			ok, _ := eval.MatchSimple(entry, normalize(t, tt.query))
			require.Equal(t, tt.ok, ok)
		})
	}
}

func TestMatchSimpleSizeIgnoredForDirectories(t *testing.T) {
	eval := New(nil)
	dir := models.NewEntry("/data", models.TypeDirectory, models.Stat{})
	q := normalize(t, models.Query{Expressions: []string{"/"}, MinSize: "1GB"})
	ok, _ := eval.MatchSimple(dir, q)
	require.True(t, ok, "size bounds apply to files only")
}

func TestMatchTimestampBounds(t *testing.T) {
	eval := New(nil)
	now := time.Now()
	stat := models.Stat{
		Size: models.NewNumeric(1, models.NumberMode),
		Times: models.Timestamps{
			Access: now,
			Modify: now,
			Change: now,
			Birth:  now,
		},
	}
	entry := models.NewEntry("/data/f.txt", models.TypeFile, stat)

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name   string
		query  models.Query
		ok     bool
		reason Reason
	}{
		{"all in range", models.Query{MinAccessTime: past, MaxAccessTime: future}, true, ReasonNone},
		{"access too old", models.Query{MinAccessTime: future}, false, ReasonAccessTime},
		{"modify too new", models.Query{MaxModifyTime: past}, false, ReasonModifyTime},
		{"change too old", models.Query{MinChangeTime: future}, false, ReasonChangeTime},
		{"birth too new", models.Query{MaxBirthTime: past}, false, ReasonBirthTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.query.Expressions = []string{"/data"}
			ok, reason, err := eval.Match(entry, normalize(t, tt.query))
			require.NoError(t, err)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.reason, reason)
		})
	}
}

func TestMatchTypeFilter(t *testing.T) {
	eval := New(nil)
	file := fileAt("/data/f.txt", 1)
	dir := models.NewEntry("/data/d", models.TypeDirectory, models.Stat{})

	q := normalize(t, models.Query{Expressions: []string{"/data"}, Type: models.TypeDirectory})

	ok, reason, err := eval.Match(file, q)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, ReasonType, reason)

	ok, _, err = eval.Match(dir, q)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMatchContentCounts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("foo bar foo baz foo\n"), 0644))
	entry := fileAt(path, 20)

	eval := New(nil)

	t.Run("pattern satisfied", func(t *testing.T) {
		q := normalize(t, models.Query{Expressions: []string{dir}, Contains: "foo"})
		ok, _, err := eval.Match(entry, q)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("zero matches rejects with minMatches", func(t *testing.T) {
		q := normalize(t, models.Query{Expressions: []string{dir}, Contains: "absent"})
		ok, reason, err := eval.Match(entry, q)
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, ReasonMinMatches, reason)
	})

	t.Run("min match count", func(t *testing.T) {
		q := normalize(t, models.Query{Expressions: []string{dir}, Contains: "foo", MinMatches: 4})
		ok, reason, err := eval.Match(entry, q)
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, ReasonMinMatches, reason)
	})

	t.Run("max match count", func(t *testing.T) {
		q := normalize(t, models.Query{Expressions: []string{dir}, Contains: "foo", MaxMatches: 2})
		ok, reason, err := eval.Match(entry, q)
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, ReasonMaxMatches, reason)
	})

	t.Run("callback fires per match in file order", func(t *testing.T) {
		var lines []int
		q := models.Query{
			Expressions: []string{dir},
			Contains:    "foo",
			OnMatch: func(m *models.Match) {
				lines = append(lines, m.Index)
			},
		}
		ok, _, err := eval.Match(entry, normalize(t, q))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, []int{0, 8, 16}, lines)
	})

	t.Run("callback fires even when count rejects", func(t *testing.T) {
		calls := 0
		q := models.Query{
			Expressions: []string{dir},
			Contains:    "foo",
			MinMatches:  99,
			OnMatch:     func(*models.Match) { calls++ },
		}
		ok, _, err := eval.Match(entry, normalize(t, q))
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, 3, calls, "per-match callback fires during counting, not after")
	})
}

func TestMatchContentNonFileRejected(t *testing.T) {
	eval := New(nil)
	dir := models.NewEntry("/data", models.TypeDirectory, models.Stat{})
	q := normalize(t, models.Query{Expressions: []string{"/"}, Contains: "foo"})

	ok, reason, err := eval.Match(dir, q)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, ReasonMinMatches, reason)
}

func TestMatchContentReadFailure(t *testing.T) {
	eval := New(nil)
	entry := fileAt("/nonexistent/f.txt", 1)
	q := normalize(t, models.Query{Expressions: []string{"/"}, Contains: "foo"})

	ok, _, err := eval.Match(entry, q)
	require.False(t, ok)
	require.Error(t, err, "a read failure must be distinguishable from zero matches")
	var cre *models.ContentReadError
	require.True(t, errors.As(err, &cre))
}

func TestMatchIsPure(t *testing.T) {
	// Re-applying the evaluator to the same entry and query must
	// reproduce the decision, so collections can be re-filtered
	// without a new walk.
	eval := New(nil)
	entry := fileAt("/data/report.txt", 500)
	q := normalize(t, models.Query{Expressions: []string{"/data"}, MinSize: "100", Suffix: ".txt"})

	for i := 0; i < 3; i++ {
		ok, reason, err := eval.Match(entry, q)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, ReasonNone, reason)
	}
}
