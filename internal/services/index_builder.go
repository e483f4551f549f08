package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"sort"
	"strings"

	"careerminers/job-matcher/internal/models"
)

// IndexBuilder creates or refreshes the semantic index over postings.
type IndexBuilder interface {
	Build(ctx context.Context, spec models.IndexSpec) (*models.IndexBuildReport, error)
}

// RunIndexBuild builds once and logs the outcome.
func RunIndexBuild(ctx context.Context, builder IndexBuilder, spec models.IndexSpec) (*models.IndexBuildReport, error) {
	log.Printf("🔄 Building index %s from %s (delta_sync=%t, schema_evolution=%t)",
		spec.IndexName, spec.SourceTable, spec.Options.DeltaSync, spec.Options.SchemaEvolution)

	report, err := builder.Build(ctx, spec)
	if err != nil {
		log.Printf("❌ Index build failed: %v", err)
		return report, err
	}

	log.Println(strings.Repeat("=", 60))
	log.Printf("📊 Index Build Summary: %s", report.IndexName)
	log.Printf("   Mode: %s", report.Mode)
	log.Printf("   Source rows: %d", report.SourceRows)
	log.Printf("   Upserted: %d, Deleted: %d, Unchanged: %d", report.Upserted, report.Deleted, report.Unchanged)
	log.Println(strings.Repeat("=", 60))

	return report, nil
}

// DedupePostings keeps distinct, fully populated postings and drops every
// job_id that still occurs more than once. First-seen order is preserved.
func DedupePostings(rows []models.JobPosting) []models.JobPosting {
	seen := make(map[models.JobPosting]bool, len(rows))
	distinct := make([]models.JobPosting, 0, len(rows))
	idCount := make(map[string]int, len(rows))

	for _, row := range rows {
		if isBlank(row.JobID) || isBlank(row.CompanyName) || isBlank(row.Title) || isBlank(row.Description) {
			continue
		}
		if seen[row] {
			continue
		}
		seen[row] = true
		distinct = append(distinct, row)
		idCount[row.JobID]++
	}

	postings := make([]models.JobPosting, 0, len(distinct))
	for _, row := range distinct {
		if idCount[row.JobID] == 1 {
			postings = append(postings, row)
		}
	}

	return postings
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ContentHash fingerprints the indexed fields of a posting.
func ContentHash(p models.JobPosting) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{p.JobID, p.CompanyName, p.Title, p.Description}, "\x1f")))
	return hex.EncodeToString(sum[:])
}

type DeltaPlan struct {
	Upsert    []models.JobPosting
	Delete    []string
	Unchanged int
}

// PlanDeltaSync compares source postings with the hashes already indexed.
func PlanDeltaSync(postings []models.JobPosting, indexed map[string]string) DeltaPlan {
	var plan DeltaPlan
	present := make(map[string]bool, len(postings))

	for _, p := range postings {
		present[p.JobID] = true
		if hash, ok := indexed[p.JobID]; ok && hash == ContentHash(p) {
			plan.Unchanged++
			continue
		}
		plan.Upsert = append(plan.Upsert, p)
	}

	for jobID := range indexed {
		if !present[jobID] {
			plan.Delete = append(plan.Delete, jobID)
		}
	}
	sort.Strings(plan.Delete)

	return plan
}
