package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"careerminers/job-matcher/internal/models"
)

// EmbeddingWorker fans postings out over a fixed number of goroutines, each
// embedding one posting and writing it to the vector store.
type EmbeddingWorker interface {
	Run(ctx context.Context, indexName string, postings []models.JobPosting) ([]models.IndexedPosting, error)
}

type embeddingWorker struct {
	embedder    Embedder
	store       VectorStore
	concurrency int
	callTimeout time.Duration
}

func NewEmbeddingWorker(embedder Embedder, store VectorStore, concurrency int, callTimeout time.Duration) EmbeddingWorker {
	if concurrency <= 0 {
		concurrency = 1
	}
	if callTimeout <= 0 {
		callTimeout = defaultRequestTimeout
	}
	return &embeddingWorker{
		embedder:    embedder,
		store:       store,
		concurrency: concurrency,
		callTimeout: callTimeout,
	}
}

type embedOutcome struct {
	indexed models.IndexedPosting
	err     error
}

// Run implements EmbeddingWorker. It returns the sync-state rows for every
// posting that landed, plus an error when any posting failed.
func (w *embeddingWorker) Run(ctx context.Context, indexName string, postings []models.JobPosting) ([]models.IndexedPosting, error) {
	if len(postings) == 0 {
		return nil, nil
	}

	log.Printf("🚀 Embedding %d postings with %d workers", len(postings), w.concurrency)

	jobQueue := make(chan models.JobPosting)
	outcomes := make(chan embedOutcome, len(postings))
	var done atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for posting := range jobQueue {
				indexed, err := w.process(ctx, indexName, posting)
				if err != nil {
					log.Printf("❌ Worker #%d failed on posting %s: %v", workerID, posting.JobID, err)
				}
				outcomes <- embedOutcome{indexed: indexed, err: err}

				if n := done.Add(1); n%25 == 0 || int(n) == len(postings) {
					log.Printf("📊 Progress: %d/%d postings processed", n, len(postings))
				}
			}
		}(i + 1)
	}

	go func() {
		defer close(jobQueue)
		for _, posting := range postings {
			select {
			case jobQueue <- posting:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(outcomes)

	var synced []models.IndexedPosting
	var firstErr error
	failed := 0
	for outcome := range outcomes {
		if outcome.err != nil {
			failed++
			if firstErr == nil {
				firstErr = outcome.err
			}
			continue
		}
		synced = append(synced, outcome.indexed)
	}

	if ctxErr := ctx.Err(); ctxErr != nil && len(synced)+failed < len(postings) {
		return synced, fmt.Errorf("indexing interrupted after %d of %d postings: %w", len(synced)+failed, len(postings), ctxErr)
	}
	if failed > 0 {
		return synced, fmt.Errorf("failed to index %d of %d postings: %w", failed, len(postings), firstErr)
	}

	return synced, nil
}

func (w *embeddingWorker) process(ctx context.Context, indexName string, posting models.JobPosting) (models.IndexedPosting, error) {
	callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
	defer cancel()

	embedding, err := w.embedder.GenerateEmbedding(callCtx, posting.Description)
	if err != nil {
		return models.IndexedPosting{}, timeoutError(callCtx, "embedding", err)
	}

	hash := ContentHash(posting)
	err = w.store.UpsertPostings(callCtx, []EmbeddedPosting{{
		Posting:     posting,
		Embedding:   embedding,
		ContentHash: hash,
	}})
	if err != nil {
		return models.IndexedPosting{}, timeoutError(callCtx, "upsert", err)
	}

	return models.IndexedPosting{
		IndexName:   indexName,
		JobID:       posting.JobID,
		ContentHash: hash,
		SyncedAt:    time.Now(),
	}, nil
}
