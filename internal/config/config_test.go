package config

import (
	"testing"

	"github.com/kristianoye/klf-yap/pkg/models"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.False(t, cfg.Recursive)
	require.False(t, cfg.FollowLinks)
	require.True(t, cfg.ThrowErrors)
	require.Greater(t, cfg.Concurrency, 0)
	require.Equal(t, "text", cfg.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("YAP_RECURSIVE", "true")
	t.Setenv("YAP_THROW_ERRORS", "false")
	t.Setenv("YAP_MIN_SIZE", "2KiB")
	t.Setenv("YAP_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	require.True(t, cfg.Recursive)
	require.False(t, cfg.ThrowErrors)
	require.Equal(t, "2KiB", cfg.MinSize)
	require.Equal(t, "json", cfg.Format)
}

func TestQueryFromConfig(t *testing.T) {
	cfg := &Config{
		Recursive:   true,
		FollowLinks: true,
		Concurrency: 8,
		MaxDepth:    5,
		ThrowErrors: false,
		MinSize:     "1KB",
		Type:        "file",
	}

	q := cfg.Query([]string{"/var/log/*"})

	require.Equal(t, []string{"/var/log/*"}, q.Expressions)
	require.True(t, q.Recursive)
	require.True(t, q.FollowLinks)
	require.Equal(t, 8, q.Concurrency)
	require.Equal(t, 5, q.MaxDepth)
	require.NotNil(t, q.ThrowErrors)
	require.False(t, *q.ThrowErrors)
	require.Equal(t, "1KB", q.MinSize)
	require.Equal(t, models.TypeFile, q.Type)

	nq, err := q.Normalize()
	require.NoError(t, err)
	min, ok := nq.MinSizeBytes()
	require.True(t, ok)
	require.Equal(t, int64(1000), min)
}
