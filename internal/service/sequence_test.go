package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coralises/guildflow/internal/persistence"
)

func TestSequenceAllocatorMonotonic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "document.json")
	store := persistence.NewDocumentStore(persistence.NewFileStore(path, zap.NewNop()))
	seq := NewSequenceAllocator(store)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := seq.Next(ctx, CounterTicket)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Counters are independent.
	got, err := seq.Next(ctx, CounterApplication)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestSequenceAllocatorSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "document.json")
	ctx := context.Background()

	store := persistence.NewDocumentStore(persistence.NewFileStore(path, zap.NewNop()))
	seq := NewSequenceAllocator(store)
	_, err := seq.Next(ctx, CounterTicket)
	require.NoError(t, err)
	_, err = seq.Next(ctx, CounterTicket)
	require.NoError(t, err)

	// A fresh store over the same file continues the sequence.
	reopened := NewSequenceAllocator(persistence.NewDocumentStore(persistence.NewFileStore(path, zap.NewNop())))
	got, err := reopened.Next(ctx, CounterTicket)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)
}

func TestSequenceAllocatorUnknownCounter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "document.json")
	store := persistence.NewDocumentStore(persistence.NewFileStore(path, zap.NewNop()))
	seq := NewSequenceAllocator(store)

	_, err := seq.Next(context.Background(), "bogus")
	require.Error(t, err)
}
