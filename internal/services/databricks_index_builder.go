package services

import (
	"context"
	"fmt"
	"log"

	"careerminers/job-matcher/internal/models"
)

// VectorIndexManager is the index lifecycle surface of Databricks Vector Search.
type VectorIndexManager interface {
	GetIndex(ctx context.Context, name string) (*VectorIndexInfo, error)
	CreateDeltaSyncIndex(ctx context.Context, spec models.IndexSpec) error
	SyncIndex(ctx context.Context, name string) error
	DeleteIndex(ctx context.Context, name string) error
}

// DatabricksIndexBuilder cleans the postings table (when a SQL warehouse is
// available) and creates or syncs a managed delta-sync index over it.
type DatabricksIndexBuilder struct {
	indexes    VectorIndexManager
	statements StatementExecutor
	rawTable   string
}

// NewDatabricksIndexBuilder takes a nil statements executor when the source
// table is cleaned elsewhere.
func NewDatabricksIndexBuilder(indexes VectorIndexManager, statements StatementExecutor, rawTable string) *DatabricksIndexBuilder {
	return &DatabricksIndexBuilder{
		indexes:    indexes,
		statements: statements,
		rawTable:   rawTable,
	}
}

// Build implements IndexBuilder.
func (b *DatabricksIndexBuilder) Build(ctx context.Context, spec models.IndexSpec) (*models.IndexBuildReport, error) {
	if b.statements != nil {
		statement, err := BuildCleaningStatement(b.rawTable, spec.SourceTable)
		if err != nil {
			return nil, err
		}

		log.Printf("🧹 Cleaning %s into %s...", b.rawTable, spec.SourceTable)
		if err := b.statements.Execute(ctx, statement); err != nil {
			return nil, fmt.Errorf("failed to clean postings table: %w", err)
		}
		log.Println("✅ Postings table cleaned")
	}

	report := &models.IndexBuildReport{IndexName: spec.IndexName}

	info, err := b.indexes.GetIndex(ctx, spec.IndexName)
	switch {
	case IsNotFound(err):
		log.Printf("🆕 Index %s not found, creating...", spec.IndexName)
		if err := b.indexes.CreateDeltaSyncIndex(ctx, spec); err != nil {
			return nil, err
		}
		report.Mode = models.BuildModeCreated
	case err != nil:
		return nil, err
	case spec.Options.DeltaSync:
		log.Printf("🔄 Index %s exists, triggering delta sync...", spec.IndexName)
		if err := b.indexes.SyncIndex(ctx, spec.IndexName); err != nil {
			return nil, err
		}
		report.Mode = models.BuildModeSynced
		report.Unchanged = info.Status.IndexedRowCount
	default:
		log.Printf("♻️  Index %s exists, rebuilding from scratch...", spec.IndexName)
		if err := b.indexes.DeleteIndex(ctx, spec.IndexName); err != nil {
			return nil, err
		}
		if err := b.indexes.CreateDeltaSyncIndex(ctx, spec); err != nil {
			return nil, err
		}
		report.Mode = models.BuildModeRebuilt
	}

	return report, nil
}
