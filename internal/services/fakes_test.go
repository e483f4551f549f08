package services_test

import (
	"context"
	"errors"
	"sync"

	"careerminers/job-matcher/internal/models"
	"careerminers/job-matcher/internal/services"
)

type fakeInference struct {
	response string
	err      error
	block    bool

	calls     int
	messages  []models.ChatMessage
	maxTokens int
}

func (f *fakeInference) Complete(ctx context.Context, messages []models.ChatMessage, maxTokens int) (string, error) {
	f.calls++
	f.messages = messages
	f.maxTokens = maxTokens
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.response, f.err
}

type fakeSearch struct {
	results []models.SearchResult
	err     error
	block   bool

	calls   int
	queries []services.SimilarityQuery
}

func (f *fakeSearch) SimilaritySearch(ctx context.Context, query services.SimilarityQuery) ([]models.SearchResult, error) {
	f.calls++
	f.queries = append(f.queries, query)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.results, f.err
}

var errEmbeddingQuota = errors.New("embedding quota exceeded")

type fakeEmbedder struct {
	mu    sync.Mutex
	fail  map[string]bool
	texts []string
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	if f.fail[text] {
		return nil, errEmbeddingQuota
	}
	return []float32{float32(len(text)), 1}, nil
}

type fakeVectorStore struct {
	mu sync.Mutex

	created      bool
	ensureErr    error
	recreated    int
	points       map[string]services.EmbeddedPosting
	deleted      []string
	searchResult []models.SearchResult
	searchErr    error
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{points: map[string]services.EmbeddedPosting{}}
}

func (f *fakeVectorStore) EnsureCollection(context.Context, bool) (bool, error) {
	return f.created, f.ensureErr
}

func (f *fakeVectorStore) RecreateCollection(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recreated++
	f.points = map[string]services.EmbeddedPosting{}
	return nil
}

func (f *fakeVectorStore) UpsertPostings(_ context.Context, postings []services.EmbeddedPosting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range postings {
		f.points[p.Posting.JobID] = p
	}
	return nil
}

func (f *fakeVectorStore) DeletePostings(_ context.Context, jobIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range jobIDs {
		delete(f.points, id)
	}
	f.deleted = append(f.deleted, jobIDs...)
	return nil
}

func (f *fakeVectorStore) SearchSimilar(context.Context, []float32, int) ([]models.SearchResult, error) {
	return f.searchResult, f.searchErr
}

func (f *fakeVectorStore) Close() error { return nil }

type fakePostingSource struct {
	rows []models.JobPosting
}

func (f *fakePostingSource) FindNonNull(context.Context) ([]models.JobPosting, error) {
	return f.rows, nil
}

type fakeStateStore struct {
	hashes map[string]map[string]string
	resets int
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{hashes: map[string]map[string]string{}}
}

func (f *fakeStateStore) LoadHashes(_ context.Context, indexName string) (map[string]string, error) {
	out := map[string]string{}
	for k, v := range f.hashes[indexName] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStateStore) SaveSynced(_ context.Context, entries []models.IndexedPosting) error {
	for _, e := range entries {
		if f.hashes[e.IndexName] == nil {
			f.hashes[e.IndexName] = map[string]string{}
		}
		f.hashes[e.IndexName][e.JobID] = e.ContentHash
	}
	return nil
}

func (f *fakeStateStore) DeleteJobs(_ context.Context, indexName string, jobIDs []string) error {
	for _, id := range jobIDs {
		delete(f.hashes[indexName], id)
	}
	return nil
}

func (f *fakeStateStore) Reset(_ context.Context, indexName string) error {
	f.resets++
	delete(f.hashes, indexName)
	return nil
}
