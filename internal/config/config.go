package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"careerminers/job-matcher/internal/models"
)

const (
	ProviderDatabricks = "databricks"
	ProviderGemini     = "gemini"
	BackendDatabricks  = "databricks"
	BackendQdrant      = "qdrant"
)

var ErrMissingConfiguration = errors.New("missing configuration")

// MissingConfigError lists every required key that was absent.
type MissingConfigError struct {
	Keys []string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("missing configuration: %s", strings.Join(e.Keys, ", "))
}

func (e *MissingConfigError) Unwrap() error {
	return ErrMissingConfiguration
}

type Config struct {
	Server         ServerConfig
	Databricks     DatabricksConfig
	LLM            LLMConfig
	Gemini         GeminiConfig
	Search         SearchConfig
	Qdrant         QdrantConfig
	Database       DatabaseConfig
	Index          IndexConfig
	RequestTimeout time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	MaxUploadSize  int64
	ResumeMaxChars int
}

type DatabricksConfig struct {
	WorkspaceURL    string
	ClientID        string
	ClientSecret    string
	ServingEndpoint string
	WarehouseID     string
}

type LLMConfig struct {
	Provider  string
	MaxTokens int
}

type GeminiConfig struct {
	APIKey     string
	Model      string
	EmbedModel string
}

type SearchConfig struct {
	Backend        string
	EndpointName   string
	IndexName      string
	DefaultResults int
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	VectorSize uint64
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type IndexConfig struct {
	RawTable        string
	SourceTable     string
	PrimaryKey      string
	TextColumn      string
	EmbeddingModel  string
	DeltaSync       bool
	SchemaEvolution bool
	Schedule        string
	Concurrency     int
}

// Load reads .env (when present) and the process environment, then validates
// that every credential needed by the selected backends is set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using environment variables.")
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv builds a Config from the environment without validating it.
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "3000"),
			Env:            getEnv("ENV", "development"),
			MaxUploadSize:  int64(getEnvAsInt("MAX_UPLOAD_SIZE", 10*1024*1024)),
			ResumeMaxChars: getEnvAsInt("RESUME_MAX_CHARS", 20000),
		},
		Databricks: DatabricksConfig{
			WorkspaceURL:    strings.TrimRight(getEnv("WORKSPACE_URL", ""), "/"),
			ClientID:        getEnv("SP_CLIENT_ID", ""),
			ClientSecret:    getEnv("SP_CLIENT_SECRET", ""),
			ServingEndpoint: getEnv("SERVING_ENDPOINT", "databricks-dbrx-instruct"),
			WarehouseID:     getEnv("SQL_WAREHOUSE_ID", ""),
		},
		LLM: LLMConfig{
			Provider:  strings.ToLower(getEnv("LLM_PROVIDER", ProviderDatabricks)),
			MaxTokens: getEnvAsInt("LLM_MAX_TOKENS", 4000),
		},
		Gemini: GeminiConfig{
			APIKey:     getEnv("GEMINI_API_KEY", ""),
			Model:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbedModel: getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
		},
		Search: SearchConfig{
			Backend:        strings.ToLower(getEnv("SEARCH_BACKEND", BackendDatabricks)),
			EndpointName:   getEnv("VECTOR_SEARCH_ENDPOINT", "hackathon_job_miners"),
			IndexName:      getEnv("VECTOR_INDEX_NAME", "workspace.default.career_miners_description_index"),
			DefaultResults: getEnvAsInt("DEFAULT_RESULT_COUNT", 5),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", "http://localhost:6334"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "job_postings"),
			VectorSize: uint64(getEnvAsInt("QDRANT_VECTOR_SIZE", 768)),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "job_postings"),
		},
		Index: IndexConfig{
			RawTable:        getEnv("POSTINGS_RAW_TABLE", "workspace.default.postings"),
			SourceTable:     getEnv("POSTINGS_SOURCE_TABLE", "workspace.default.posting_cleaned"),
			PrimaryKey:      getEnv("INDEX_PRIMARY_KEY", "job_id"),
			TextColumn:      getEnv("INDEX_TEXT_COLUMN", "description"),
			EmbeddingModel:  getEnv("INDEX_EMBEDDING_MODEL", "databricks-bge-large-en"),
			DeltaSync:       getEnvAsBool("INDEX_DELTA_SYNC", true),
			SchemaEvolution: getEnvAsBool("INDEX_SCHEMA_EVOLUTION", true),
			Schedule:        getEnv("INDEX_SYNC_SCHEDULE", ""),
			Concurrency:     getEnvAsInt("INDEX_WORKER_CONCURRENCY", 3),
		},
		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", "30s"),
	}
}

// Validate fails fast when a selected backend lacks its credentials.
func (c *Config) Validate() error {
	var missing []string
	require := func(key, value string) {
		if value == "" {
			missing = append(missing, key)
		}
	}

	if c.UsesDatabricks() {
		require("WORKSPACE_URL", c.Databricks.WorkspaceURL)
		require("SP_CLIENT_ID", c.Databricks.ClientID)
		require("SP_CLIENT_SECRET", c.Databricks.ClientSecret)
	}
	if c.LLM.Provider == ProviderGemini || c.Search.Backend == BackendQdrant {
		require("GEMINI_API_KEY", c.Gemini.APIKey)
	}

	if len(missing) > 0 {
		return &MissingConfigError{Keys: missing}
	}

	switch c.LLM.Provider {
	case ProviderDatabricks, ProviderGemini:
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLM.Provider)
	}
	switch c.Search.Backend {
	case BackendDatabricks, BackendQdrant:
	default:
		return fmt.Errorf("unsupported SEARCH_BACKEND %q", c.Search.Backend)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", c.LLM.MaxTokens)
	}

	return nil
}

func (c *Config) UsesDatabricks() bool {
	return c.LLM.Provider == ProviderDatabricks || c.Search.Backend == BackendDatabricks
}

// IndexSpec describes the index the selected search backend queries. The
// Qdrant backend indexes the Postgres postings table into its collection.
func (c *Config) IndexSpec() models.IndexSpec {
	spec := models.IndexSpec{
		IndexName:      c.Search.IndexName,
		EndpointName:   c.Search.EndpointName,
		SourceTable:    c.Index.SourceTable,
		PrimaryKey:     c.Index.PrimaryKey,
		TextColumn:     c.Index.TextColumn,
		EmbeddingModel: c.Index.EmbeddingModel,
		Options: models.SyncOptions{
			DeltaSync:       c.Index.DeltaSync,
			SchemaEvolution: c.Index.SchemaEvolution,
		},
	}

	if c.Search.Backend == BackendQdrant {
		spec.IndexName = c.Qdrant.Collection
		spec.EndpointName = c.Qdrant.URL
		spec.SourceTable = models.RawPosting{}.TableName()
		spec.EmbeddingModel = c.Gemini.EmbedModel
	}

	return spec
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
