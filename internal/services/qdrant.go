package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"careerminers/job-matcher/internal/models"
)

var pointNamespace = uuid.MustParse("6f1c2d8e-3b7a-5c4e-9a0d-2e8f7b6c1a54")

// EmbeddedPosting is a posting ready to be written to the vector store.
type EmbeddedPosting struct {
	Posting     models.JobPosting
	Embedding   []float32
	ContentHash string
}

type VectorStore interface {
	// EnsureCollection creates the collection when missing. A collection
	// whose vector size drifted is recreated when recreateOnMismatch is set.
	EnsureCollection(ctx context.Context, recreateOnMismatch bool) (created bool, err error)
	RecreateCollection(ctx context.Context) error
	UpsertPostings(ctx context.Context, postings []EmbeddedPosting) error
	DeletePostings(ctx context.Context, jobIDs []string) error
	SearchSimilar(ctx context.Context, queryEmbedding []float32, limit int) ([]models.SearchResult, error)
	Close() error
}

type qdrantService struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
}

func NewQdrantService(urlStr, apiKey, collectionName string, vectorSize uint64) (VectorStore, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantService{
		client:         client,
		collectionName: collectionName,
		vectorSize:     vectorSize,
	}, nil
}

// PointIDForJob derives a stable point ID so re-indexing a posting
// overwrites its previous point.
func PointIDForJob(jobID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(jobID)).String()
}

// EnsureCollection implements VectorStore.
func (q *qdrantService) EnsureCollection(ctx context.Context, recreateOnMismatch bool) (bool, error) {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return false, fmt.Errorf("failed to check collection: %w", err)
	}

	if !exists {
		if err := q.createCollection(ctx); err != nil {
			return false, err
		}
		return true, nil
	}

	info, err := q.client.GetCollectionInfo(ctx, q.collectionName)
	if err != nil {
		return false, fmt.Errorf("failed to get collection info: %w", err)
	}

	size := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	if size == q.vectorSize {
		log.Println("✅ Collection already exists")
		return false, nil
	}

	if !recreateOnMismatch {
		return false, fmt.Errorf("collection %s has vector size %d, want %d", q.collectionName, size, q.vectorSize)
	}

	log.Printf("⚠️  Collection %s has vector size %d, recreating with %d", q.collectionName, size, q.vectorSize)
	if err := q.RecreateCollection(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// RecreateCollection implements VectorStore.
func (q *qdrantService) RecreateCollection(ctx context.Context) error {
	if err := q.client.DeleteCollection(ctx, q.collectionName); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return q.createCollection(ctx)
}

func (q *qdrantService) createCollection(ctx context.Context) error {
	err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Printf("✅ Qdrant collection '%s' created successfully\n", q.collectionName)
	return nil
}

// UpsertPostings implements VectorStore.
func (q *qdrantService) UpsertPostings(ctx context.Context, postings []EmbeddedPosting) error {
	if len(postings) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(postings))
	for _, p := range postings {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(PointIDForJob(p.Posting.JobID)),
			Vectors: qdrant.NewVectors(p.Embedding...),
			Payload: qdrant.NewValueMap(map[string]interface{}{
				"job_id":       p.Posting.JobID,
				"title":        p.Posting.Title,
				"company_name": p.Posting.CompanyName,
				"description":  p.Posting.Description,
				"content_hash": p.ContentHash,
			}),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

// DeletePostings implements VectorStore.
func (q *qdrantService) DeletePostings(ctx context.Context, jobIDs []string) error {
	if len(jobIDs) == 0 {
		return nil
	}

	ids := make([]*qdrant.PointId, 0, len(jobIDs))
	for _, jobID := range jobIDs {
		ids = append(ids, qdrant.NewID(PointIDForJob(jobID)))
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(ids...),
	})
	if err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}

	return nil
}

// SearchSimilar implements VectorStore.
func (q *qdrantService) SearchSimilar(ctx context.Context, queryEmbedding []float32, limit int) ([]models.SearchResult, error) {
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]models.SearchResult, 0, len(points))
	for _, point := range points {
		payload := point.GetPayload()
		results = append(results, models.SearchResult{
			JobID:          payload["job_id"].GetStringValue(),
			Title:          payload["title"].GetStringValue(),
			CompanyName:    payload["company_name"].GetStringValue(),
			Description:    payload["description"].GetStringValue(),
			RelevanceScore: float64(point.GetScore()),
		})
	}

	return results, nil
}

func (q *qdrantService) Close() error {
	return q.client.Close()
}
