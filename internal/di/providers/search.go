package providers

import (
	"github.com/samber/do/v2"

	"github.com/packdex/packdex-server/internal/logger"
	"github.com/packdex/packdex-server/internal/search"
)

// SearchIndexHandle wraps the pack directory index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve index over available packs.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewIndex(log.Logger)
	if err != nil {
		return nil, err
	}

	return &SearchIndexHandle{Index: index}, nil
}
