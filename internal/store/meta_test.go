package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeta_SetGetAndOverwrite(t *testing.T) {
	// Given: an open store
	s := newTestStore(t, "fts5")
	ctx := context.Background()

	// When: writing and rewriting a key
	require.NoError(t, s.SetMeta(ctx, MetaKeyCurrentVersion, "6000.1"))
	require.NoError(t, s.SetMeta(ctx, MetaKeyCurrentVersion, "6000.2"))

	// Then: the latest value wins
	got, err := s.GetMeta(ctx, MetaKeyCurrentVersion)
	require.NoError(t, err)
	assert.Equal(t, "6000.2", got)
}

func TestMeta_AbsentKeyIsEmpty(t *testing.T) {
	s := newTestStore(t, "fts5")
	got, err := s.GetMeta(context.Background(), "never_written")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMeta_AllReturnsEveryKey(t *testing.T) {
	// Given: several metadata keys
	s := newTestStore(t, "fts5")
	ctx := context.Background()
	require.NoError(t, s.SetMeta(ctx, MetaKeyCurrentVersion, "6000.1"))
	require.NoError(t, s.SetMeta(ctx, MetaKeySourceURL, "https://example.com/docs.zip"))

	// When: reading the whole table
	all, err := s.AllMeta(ctx)

	// Then: both keys are present
	require.NoError(t, err)
	assert.Equal(t, "6000.1", all[MetaKeyCurrentVersion])
	assert.Equal(t, "https://example.com/docs.zip", all[MetaKeySourceURL])
}
