package models

import "time"

// RawPosting is a row of the upstream postings table. Every column may be
// null until the cleaning step has run.
type RawPosting struct {
	JobID       *string `gorm:"column:job_id;type:text" json:"job_id"`
	CompanyName *string `gorm:"column:company_name;type:text" json:"company_name"`
	Title       *string `gorm:"column:title;type:text" json:"title"`
	Description *string `gorm:"column:description;type:text" json:"description"`
}

func (RawPosting) TableName() string {
	return "postings"
}

// JobPosting is a cleaned posting: every field set, JobID unique.
type JobPosting struct {
	JobID       string `gorm:"column:job_id" json:"job_id"`
	CompanyName string `gorm:"column:company_name" json:"company_name"`
	Title       string `gorm:"column:title" json:"title"`
	Description string `gorm:"column:description" json:"description"`
}

// IndexedPosting records what was last pushed to a vector index for one
// posting, so a rerun only re-embeds what changed.
type IndexedPosting struct {
	IndexName   string    `gorm:"type:text;primaryKey" json:"index_name"`
	JobID       string    `gorm:"type:text;primaryKey" json:"job_id"`
	ContentHash string    `gorm:"type:char(64);not null" json:"content_hash"`
	SyncedAt    time.Time `gorm:"type:timestamp;not null;default:now()" json:"synced_at"`
}

func (IndexedPosting) TableName() string {
	return "index_sync_state"
}
