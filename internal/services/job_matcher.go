package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"careerminers/job-matcher/internal/models"
)

const defaultRequestTimeout = 30 * time.Second

// SimilarityQuery is one request against the semantic index.
type SimilarityQuery struct {
	QueryText  string
	NumResults int
	Columns    []string
}

// SemanticSearchService ranks indexed postings against free text.
type SemanticSearchService interface {
	SimilaritySearch(ctx context.Context, query SimilarityQuery) ([]models.SearchResult, error)
}

type MatcherConfig struct {
	MaxTokens      int
	RequestTimeout time.Duration
}

type JobMatcher struct {
	extractor *SkillExtractor
	search    SemanticSearchService
	timeout   time.Duration
}

func NewJobMatcher(cfg MatcherConfig, inference SkillInferenceService, search SemanticSearchService) *JobMatcher {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &JobMatcher{
		extractor: NewSkillExtractor(inference, cfg.MaxTokens),
		search:    search,
		timeout:   timeout,
	}
}

// FindJobs returns at most resultCount postings ranked against the skills
// extracted from userInput.
func (m *JobMatcher) FindJobs(ctx context.Context, userInput string, resultCount int) ([]models.SearchResult, error) {
	outcome, err := m.Match(ctx, userInput, resultCount)
	if err != nil {
		return nil, err
	}
	return outcome.Results, nil
}

// Match runs skill extraction then similarity search. The two calls are
// strictly sequential and each gets its own timeout.
func (m *JobMatcher) Match(ctx context.Context, userInput string, resultCount int) (*models.MatchOutcome, error) {
	if resultCount <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidResultCount, resultCount)
	}

	log.Println("🤖 Extracting skills with LLM...")
	skills, err := m.extractSkills(ctx, userInput)
	if err != nil {
		return nil, err
	}

	if skills.Empty() {
		return nil, ErrEmptySkillSet
	}
	queryText := skills.QueryText()

	log.Printf("🔍 Searching top %d postings for: %s", resultCount, queryText)
	results, err := m.searchPostings(ctx, queryText, resultCount)
	if err != nil {
		return nil, err
	}

	if len(results) > resultCount {
		results = results[:resultCount]
	}

	log.Printf("✅ %d matching postings found", len(results))

	return &models.MatchOutcome{
		Skills:    skills,
		QueryText: queryText,
		Results:   results,
	}, nil
}

func (m *JobMatcher) extractSkills(ctx context.Context, userInput string) (models.SkillSet, error) {
	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	skills, err := m.extractor.ExtractSkills(callCtx, userInput)
	if err != nil {
		return nil, timeoutError(callCtx, "skill extraction", err)
	}
	return skills, nil
}

func (m *JobMatcher) searchPostings(ctx context.Context, queryText string, resultCount int) ([]models.SearchResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	results, err := m.search.SimilaritySearch(callCtx, SimilarityQuery{
		QueryText:  queryText,
		NumResults: resultCount,
		Columns:    models.SearchColumns,
	})
	if err != nil {
		return nil, timeoutError(callCtx, "similarity search", fmt.Errorf("failed to search postings: %w", err))
	}
	return results, nil
}
