package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/coralises/guildflow/internal/domain"
)

// FileStore persists the document as a JSON file. Saves go through
// write-to-temp-then-rename in the same directory so a crashed write never
// leaves a truncated document behind.
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore creates a file-backed driver.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Load reads the document, initializing the empty schema on first run.
func (f *FileStore) Load(ctx context.Context) (*domain.Document, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			doc := domain.NewDocument()
			if err := f.Save(ctx, doc); err != nil {
				return nil, err
			}
			f.logger.Info("initialized empty document", zap.String("path", f.path))
			return doc, nil
		}
		return nil, fmt.Errorf("read document: %w", err)
	}

	doc := domain.NewDocument()
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Save atomically replaces the document file.
func (f *FileStore) Save(_ context.Context, doc *domain.Document) error {
	raw, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".guildflow-*.json")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp document: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("swap document: %w", err)
	}
	return nil
}
