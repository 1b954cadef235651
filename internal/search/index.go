package search

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/packdex/packdex-server/internal/catalog"
)

// Index is the pack directory index.
//
// It lives in memory only: packs are reloaded from disk on startup, so the
// index is rebuilt from the library rather than persisted.
// All methods are safe for concurrent use.
type Index struct {
	index  bleve.Index
	logger *slog.Logger
	mu     sync.RWMutex // guards index replacement in Reset
}

// NewIndex creates an empty in-memory index.
func NewIndex(logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &Index{index: index, logger: logger}, nil
}

// Close releases the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexPack adds or replaces the document for p.
func (s *Index) IndexPack(p *catalog.Pack) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := PackToDocument(p)
	return s.index.Index(doc.ID, doc.ToMap())
}

// IndexPacks indexes packs in batches.
func (s *Index) IndexPacks(packs []*catalog.Pack) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 100

	for i := 0; i < len(packs); i += batchSize {
		end := min(i+batchSize, len(packs))

		batch := s.index.NewBatch()
		for _, p := range packs[i:end] {
			doc := PackToDocument(p)
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}

		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// Remove drops the document of a pack.
func (s *Index) Remove(packID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(packID)
}

// Count returns the number of indexed packs.
func (s *Index) Count() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Reset replaces the index contents with packs.
func (s *Index) Reset(packs []*catalog.Pack) error {
	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.mu.Lock()
	old := s.index
	s.index = fresh
	s.mu.Unlock()

	if err := old.Close(); err != nil {
		s.logger.Warn("failed to close previous directory index", "error", err)
	}

	if err := s.IndexPacks(packs); err != nil {
		return err
	}
	s.logger.Info("rebuilt pack directory", "packs", len(packs))
	return nil
}
