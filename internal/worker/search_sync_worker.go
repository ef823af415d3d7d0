package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Reindexer rebuilds the product search index.
type Reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

// SearchSyncWorker periodically rebuilds the product search index.
type SearchSyncWorker struct {
	indexer  Reindexer
	interval time.Duration
}

// NewSearchSyncWorker constructs a SearchSyncWorker.
func NewSearchSyncWorker(indexer Reindexer, interval time.Duration) *SearchSyncWorker {
	return &SearchSyncWorker{
		indexer:  indexer,
		interval: interval,
	}
}

// Start begins the periodic sync loop and listens for context cancellation.
func (w *SearchSyncWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting search sync worker")

	// Run immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Search sync worker stopped")
			return
		}
	}
}

func (w *SearchSyncWorker) run(ctx context.Context) {
	start := time.Now()
	n, err := w.indexer.Reindex(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sync search index")
		return
	}
	log.Info().Int("documents", n).Dur("duration", time.Since(start)).Msg("Search index sync completed")
}
