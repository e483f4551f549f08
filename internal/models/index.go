package models

type SyncOptions struct {
	DeltaSync       bool `json:"delta_sync"`
	SchemaEvolution bool `json:"schema_evolution"`
}

// IndexSpec describes the vector index built over the postings table.
type IndexSpec struct {
	IndexName      string      `json:"index_name"`
	EndpointName   string      `json:"endpoint_name"`
	SourceTable    string      `json:"source_table"`
	PrimaryKey     string      `json:"primary_key"`
	TextColumn     string      `json:"text_column"`
	EmbeddingModel string      `json:"embedding_model"`
	Options        SyncOptions `json:"options"`
}

type BuildMode string

const (
	BuildModeCreated BuildMode = "created"
	BuildModeSynced  BuildMode = "synced"
	BuildModeRebuilt BuildMode = "rebuilt"
)

type IndexBuildReport struct {
	IndexName  string    `json:"index_name"`
	Mode       BuildMode `json:"mode"`
	SourceRows int       `json:"source_rows"`
	Upserted   int       `json:"upserted"`
	Deleted    int       `json:"deleted"`
	Unchanged  int       `json:"unchanged"`
}
