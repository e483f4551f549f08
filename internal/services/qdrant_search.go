package services

import (
	"context"
	"errors"
	"fmt"

	"careerminers/job-matcher/internal/models"
)

// QdrantSearchService embeds the query text and ranks postings stored in
// Qdrant. The payload always carries the posting columns, so the requested
// column list needs no projection.
type QdrantSearchService struct {
	embedder Embedder
	store    VectorStore
}

func NewQdrantSearchService(embedder Embedder, store VectorStore) *QdrantSearchService {
	return &QdrantSearchService{
		embedder: embedder,
		store:    store,
	}
}

// SimilaritySearch implements SemanticSearchService.
func (s *QdrantSearchService) SimilaritySearch(ctx context.Context, query SimilarityQuery) ([]models.SearchResult, error) {
	embedding, err := s.embedder.GenerateEmbedding(ctx, query.QueryText)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	results, err := s.store.SearchSimilar(ctx, embedding, query.NumResults)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	return results, nil
}
