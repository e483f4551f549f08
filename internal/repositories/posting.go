package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"careerminers/job-matcher/internal/models"
)

type PostingRepository interface {
	FindNonNull(ctx context.Context) ([]models.JobPosting, error)
	Count(ctx context.Context) (int64, error)
}

type postingRepository struct {
	db *gorm.DB
}

// FindNonNull implements PostingRepository. Rows missing any indexed column
// are skipped and exact duplicates collapse to one row.
func (p *postingRepository) FindNonNull(ctx context.Context) ([]models.JobPosting, error) {
	var postings []models.JobPosting
	err := p.db.WithContext(ctx).
		Model(&models.RawPosting{}).
		Distinct("job_id", "company_name", "title", "description").
		Where("job_id IS NOT NULL AND company_name IS NOT NULL AND title IS NOT NULL AND description IS NOT NULL").
		Order("job_id").
		Find(&postings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find postings: %w", err)
	}

	return postings, nil
}

// Count implements PostingRepository.
func (p *postingRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := p.db.WithContext(ctx).Model(&models.RawPosting{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count postings: %w", err)
	}

	return count, nil
}

func NewPostingRepository(db *gorm.DB) PostingRepository {
	return &postingRepository{db: db}
}
