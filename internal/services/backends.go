package services

import (
	"fmt"
	"log"
	"time"

	"careerminers/job-matcher/internal/config"
)

// Backends holds the provider pair selected by configuration.
type Backends struct {
	Inference  SkillInferenceService
	Search     SemanticSearchService
	Databricks *DatabricksClient
	Gemini     GeminiService
	Vectors    VectorStore
}

// NewBackends builds the LLM and search clients named by cfg. Clients are
// shared when both roles use the same provider.
func NewBackends(cfg *config.Config) (*Backends, error) {
	b := &Backends{}

	if cfg.UsesDatabricks() {
		b.Databricks = NewDatabricksClient(
			cfg.Databricks.WorkspaceURL,
			cfg.Databricks.ClientID,
			cfg.Databricks.ClientSecret,
			cfg.RequestTimeout,
		)
		log.Printf("✅ Databricks workspace client ready: %s", b.Databricks.WorkspaceURL())
	}

	if cfg.LLM.Provider == config.ProviderGemini || cfg.Search.Backend == config.BackendQdrant {
		gemini, err := NewGeminiService(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.EmbedModel)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini: %w", err)
		}
		b.Gemini = gemini
		log.Println("✅ Gemini AI initialized successfully")
	}

	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		b.Inference = b.Gemini
	default:
		b.Inference = NewDatabricksServingService(b.Databricks, cfg.Databricks.ServingEndpoint)
	}

	switch cfg.Search.Backend {
	case config.BackendQdrant:
		store, err := NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, cfg.Qdrant.VectorSize)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Qdrant: %w", err)
		}
		b.Vectors = store
		b.Search = NewQdrantSearchService(b.Gemini, store)
		log.Println("✅ Qdrant initialized successfully")
	default:
		b.Search = NewDatabricksVectorSearch(b.Databricks, cfg.Search.IndexName)
	}

	return b, nil
}

// NewMatcher wires a JobMatcher onto the selected backends.
func (b *Backends) NewMatcher(cfg *config.Config) *JobMatcher {
	return NewJobMatcher(MatcherConfig{
		MaxTokens:      cfg.LLM.MaxTokens,
		RequestTimeout: cfg.RequestTimeout,
	}, b.Inference, b.Search)
}

// Statements returns nil when no SQL warehouse is configured, which
// leaves the cleaned source table to be maintained elsewhere.
func (b *Backends) Statements(cfg *config.Config) StatementExecutor {
	if b.Databricks == nil || cfg.Databricks.WarehouseID == "" {
		return nil
	}
	return NewStatementRunner(b.Databricks, cfg.Databricks.WarehouseID, 2*time.Second)
}

func (b *Backends) Close() error {
	if b.Vectors != nil {
		return b.Vectors.Close()
	}
	return nil
}
