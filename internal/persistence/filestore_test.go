package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coralises/guildflow/internal/domain"
)

func tempStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "document.json")
	return NewFileStore(path, zap.NewNop()), path
}

func TestFileStoreInitializesEmptyDocument(t *testing.T) {
	store, path := tempStore(t)

	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, doc.TicketCounter)
	assert.Zero(t, doc.Applications.LastID)
	assert.Empty(t, doc.Applications.Active)
	assert.Empty(t, doc.Archive)

	// The empty schema is on disk after first load.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\"applications\"")
}

func TestFileStoreSaveRoundTrip(t *testing.T) {
	store, _ := tempStore(t)
	ctx := context.Background()

	doc := domain.NewDocument()
	doc.TicketCounter = 7
	doc.Applications.LastID = 3
	doc.Applications.Active[3] = domain.ApplicationRecord{
		UserID:    "user-1",
		Type:      domain.ApplicationBuilder,
		Questions: []string{"Q1"},
		Answers:   []string{"A1"},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Decision:  domain.DecisionPending,
	}
	require.NoError(t, store.Save(ctx, doc))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), loaded.TicketCounter)
	assert.Equal(t, int64(3), loaded.Applications.LastID)
	record, ok := loaded.Applications.Active[3]
	require.True(t, ok)
	assert.Equal(t, "user-1", record.UserID)
	assert.Equal(t, domain.ApplicationBuilder, record.Type)
}

func TestFileStoreSaveLeavesNoTempFiles(t *testing.T) {
	store, path := tempStore(t)
	require.NoError(t, store.Save(context.Background(), domain.NewDocument()))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(path), entries[0].Name())
}

func TestDocumentStoreMutatePersists(t *testing.T) {
	driver, _ := tempStore(t)
	store := NewDocumentStore(driver)
	ctx := context.Background()

	err := store.Mutate(ctx, func(doc *domain.Document) error {
		doc.TicketCounter++
		return nil
	})
	require.NoError(t, err)

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.TicketCounter)
}

func TestDocumentStoreMutateErrorSkipsSave(t *testing.T) {
	driver, _ := tempStore(t)
	store := NewDocumentStore(driver)
	ctx := context.Background()

	wantErr := assert.AnError
	err := store.Mutate(ctx, func(doc *domain.Document) error {
		doc.TicketCounter = 99
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Zero(t, doc.TicketCounter)
}
