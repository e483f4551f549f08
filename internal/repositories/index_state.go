package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"careerminers/job-matcher/internal/models"
)

const saveBatchSize = 500

type IndexStateRepository interface {
	LoadHashes(ctx context.Context, indexName string) (map[string]string, error)
	SaveSynced(ctx context.Context, entries []models.IndexedPosting) error
	DeleteJobs(ctx context.Context, indexName string, jobIDs []string) error
	Reset(ctx context.Context, indexName string) error
}

type indexStateRepository struct {
	db *gorm.DB
}

// LoadHashes implements IndexStateRepository.
func (r *indexStateRepository) LoadHashes(ctx context.Context, indexName string) (map[string]string, error) {
	var rows []models.IndexedPosting
	if err := r.db.WithContext(ctx).Where("index_name = ?", indexName).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load index state: %w", err)
	}

	hashes := make(map[string]string, len(rows))
	for _, row := range rows {
		hashes[row.JobID] = row.ContentHash
	}

	return hashes, nil
}

// SaveSynced implements IndexStateRepository.
func (r *indexStateRepository) SaveSynced(ctx context.Context, entries []models.IndexedPosting) error {
	if len(entries) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "index_name"}, {Name: "job_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content_hash", "synced_at"}),
		}).
		CreateInBatches(&entries, saveBatchSize).Error
	if err != nil {
		return fmt.Errorf("failed to save index state: %w", err)
	}

	return nil
}

// DeleteJobs implements IndexStateRepository.
func (r *indexStateRepository) DeleteJobs(ctx context.Context, indexName string, jobIDs []string) error {
	if len(jobIDs) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Where("index_name = ? AND job_id IN ?", indexName, jobIDs).
		Delete(&models.IndexedPosting{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete index state: %w", err)
	}

	return nil
}

// Reset implements IndexStateRepository.
func (r *indexStateRepository) Reset(ctx context.Context, indexName string) error {
	err := r.db.WithContext(ctx).
		Where("index_name = ?", indexName).
		Delete(&models.IndexedPosting{}).Error
	if err != nil {
		return fmt.Errorf("failed to reset index state: %w", err)
	}

	return nil
}

func NewIndexStateRepository(db *gorm.DB) IndexStateRepository {
	return &indexStateRepository{db: db}
}
