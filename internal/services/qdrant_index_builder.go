package services

import (
	"context"
	"fmt"
	"log"

	"careerminers/job-matcher/internal/models"
)

// PostingSource yields distinct postings with every required column set.
type PostingSource interface {
	FindNonNull(ctx context.Context) ([]models.JobPosting, error)
}

// IndexStateStore remembers which content hash each posting was indexed with.
type IndexStateStore interface {
	LoadHashes(ctx context.Context, indexName string) (map[string]string, error)
	SaveSynced(ctx context.Context, entries []models.IndexedPosting) error
	DeleteJobs(ctx context.Context, indexName string, jobIDs []string) error
	Reset(ctx context.Context, indexName string) error
}

// QdrantIndexBuilder indexes Postgres postings into a Qdrant collection,
// embedding descriptions with the configured embedder.
type QdrantIndexBuilder struct {
	postings PostingSource
	state    IndexStateStore
	store    VectorStore
	worker   EmbeddingWorker
}

func NewQdrantIndexBuilder(postings PostingSource, state IndexStateStore, store VectorStore, worker EmbeddingWorker) *QdrantIndexBuilder {
	return &QdrantIndexBuilder{
		postings: postings,
		state:    state,
		store:    store,
		worker:   worker,
	}
}

// Build implements IndexBuilder.
func (b *QdrantIndexBuilder) Build(ctx context.Context, spec models.IndexSpec) (*models.IndexBuildReport, error) {
	rows, err := b.postings.FindNonNull(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load postings: %w", err)
	}

	postings := DedupePostings(rows)
	log.Printf("📄 %d postings after cleaning (%d rows read)", len(postings), len(rows))

	report := &models.IndexBuildReport{
		IndexName:  spec.IndexName,
		SourceRows: len(postings),
	}

	created, err := b.store.EnsureCollection(ctx, spec.Options.SchemaEvolution)
	if err != nil {
		return nil, err
	}

	indexed := map[string]string{}
	switch {
	case !spec.Options.DeltaSync:
		report.Mode = models.BuildModeRebuilt
		if !created {
			if err := b.store.RecreateCollection(ctx); err != nil {
				return nil, err
			}
		}
		if err := b.state.Reset(ctx, spec.IndexName); err != nil {
			return nil, fmt.Errorf("failed to reset sync state: %w", err)
		}
	case created:
		report.Mode = models.BuildModeCreated
		if err := b.state.Reset(ctx, spec.IndexName); err != nil {
			return nil, fmt.Errorf("failed to reset sync state: %w", err)
		}
	default:
		report.Mode = models.BuildModeSynced
		indexed, err = b.state.LoadHashes(ctx, spec.IndexName)
		if err != nil {
			return nil, fmt.Errorf("failed to load sync state: %w", err)
		}
	}

	plan := PlanDeltaSync(postings, indexed)
	report.Unchanged = plan.Unchanged

	if len(plan.Delete) > 0 {
		if err := b.store.DeletePostings(ctx, plan.Delete); err != nil {
			return report, err
		}
		if err := b.state.DeleteJobs(ctx, spec.IndexName, plan.Delete); err != nil {
			return report, fmt.Errorf("failed to delete sync state: %w", err)
		}
		report.Deleted = len(plan.Delete)
	}

	synced, runErr := b.worker.Run(ctx, spec.IndexName, plan.Upsert)
	if len(synced) > 0 {
		if err := b.state.SaveSynced(ctx, synced); err != nil {
			return report, fmt.Errorf("failed to save sync state: %w", err)
		}
	}
	report.Upserted = len(synced)

	if runErr != nil {
		return report, runErr
	}
	return report, nil
}
