package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/oauth2"

	"careerminers/job-matcher/internal/models"
)

const (
	vectorIndexesPath = "/api/2.0/vector-search/indexes"
	scoreColumn       = "score"
)

// DatabricksVectorSearch queries and manages Mosaic AI Vector Search indexes.
type DatabricksVectorSearch struct {
	client    *DatabricksClient
	indexName string
}

func NewDatabricksVectorSearch(client *DatabricksClient, indexName string) *DatabricksVectorSearch {
	return &DatabricksVectorSearch{
		client:    client,
		indexName: indexName,
	}
}

type vectorQueryRequest struct {
	QueryText  string   `json:"query_text"`
	NumResults int      `json:"num_results"`
	Columns    []string `json:"columns"`
}

type vectorQueryResponse struct {
	Manifest struct {
		ColumnCount int `json:"column_count"`
		Columns     []struct {
			Name string `json:"name"`
		} `json:"columns"`
	} `json:"manifest"`
	Result struct {
		RowCount  int             `json:"row_count"`
		DataArray [][]interface{} `json:"data_array"`
	} `json:"result"`
}

// SimilaritySearch implements SemanticSearchService.
func (s *DatabricksVectorSearch) SimilaritySearch(ctx context.Context, query SimilarityQuery) ([]models.SearchResult, error) {
	var resp vectorQueryResponse
	err := s.client.do(ctx, http.MethodPost, indexPath(s.indexName, "query"), vectorQueryRequest{
		QueryText:  query.QueryText,
		NumResults: query.NumResults,
		Columns:    query.Columns,
	}, &resp)
	if err != nil {
		return nil, indexError(s.indexName, err)
	}

	columns := make([]string, 0, len(resp.Manifest.Columns))
	for _, col := range resp.Manifest.Columns {
		columns = append(columns, col.Name)
	}
	if len(columns) == 0 {
		columns = append(append(columns, query.Columns...), scoreColumn)
	}

	return decodeResultRows(columns, resp.Result.DataArray)
}

// decodeResultRows maps data_array rows onto results by column name; the
// score is always the trailing column.
func decodeResultRows(columns []string, rows [][]interface{}) ([]models.SearchResult, error) {
	results := make([]models.SearchResult, 0, len(rows))

	for i, row := range rows {
		if len(row) < len(columns) {
			return nil, fmt.Errorf("result row %d has %d cells, want %d", i, len(row), len(columns))
		}

		var result models.SearchResult
		for j, name := range columns {
			switch name {
			case "job_id":
				result.JobID = cellString(row[j])
			case "title":
				result.Title = cellString(row[j])
			case "company_name":
				result.CompanyName = cellString(row[j])
			case "description":
				result.Description = cellString(row[j])
			case scoreColumn:
				score, err := cellFloat(row[j])
				if err != nil {
					return nil, fmt.Errorf("result row %d: invalid score: %w", i, err)
				}
				result.RelevanceScore = score
			}
		}

		results = append(results, result)
	}

	return results, nil
}

func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func cellFloat(v interface{}) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case json.Number:
		return val.Float64()
	case string:
		return strconv.ParseFloat(val, 64)
	default:
		return 0, fmt.Errorf("unexpected score type %T", v)
	}
}

// indexError marks unreachable endpoints and missing indexes as
// ErrIndexUnavailable. Timeouts and auth failures keep their own identity.
func indexError(indexName string, err error) error {
	var apiErr *DatabricksAPIError
	if errors.As(err, &apiErr) {
		if apiErr.NotFound() || apiErr.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %s: %v", ErrIndexUnavailable, indexName, err)
		}
		return err
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	return fmt.Errorf("%w: %s: %v", ErrIndexUnavailable, indexName, err)
}

func IsNotFound(err error) bool {
	var apiErr *DatabricksAPIError
	return errors.As(err, &apiErr) && apiErr.NotFound()
}

func indexPath(indexName string, suffix ...string) string {
	path := vectorIndexesPath + "/" + url.PathEscape(indexName)
	for _, s := range suffix {
		path += "/" + s
	}
	return path
}

// VectorIndexInfo is the subset of index metadata the builder inspects.
type VectorIndexInfo struct {
	Name         string `json:"name"`
	EndpointName string `json:"endpoint_name"`
	PrimaryKey   string `json:"primary_key"`
	IndexType    string `json:"index_type"`
	Status       struct {
		Ready           bool   `json:"ready"`
		Message         string `json:"message"`
		IndexedRowCount int    `json:"indexed_row_count"`
	} `json:"status"`
}

type createIndexRequest struct {
	Name               string             `json:"name"`
	EndpointName       string             `json:"endpoint_name"`
	PrimaryKey         string             `json:"primary_key"`
	IndexType          string             `json:"index_type"`
	DeltaSyncIndexSpec deltaSyncIndexSpec `json:"delta_sync_index_spec"`
}

type deltaSyncIndexSpec struct {
	SourceTable            string                  `json:"source_table"`
	PipelineType           string                  `json:"pipeline_type"`
	EmbeddingSourceColumns []embeddingSourceColumn `json:"embedding_source_columns"`
	ColumnsToSync          []string                `json:"columns_to_sync,omitempty"`
}

type embeddingSourceColumn struct {
	Name                       string `json:"name"`
	EmbeddingModelEndpointName string `json:"embedding_model_endpoint_name"`
}

func (s *DatabricksVectorSearch) GetIndex(ctx context.Context, name string) (*VectorIndexInfo, error) {
	var info VectorIndexInfo
	if err := s.client.do(ctx, http.MethodGet, indexPath(name), nil, &info); err != nil {
		return nil, fmt.Errorf("failed to get index %s: %w", name, err)
	}
	return &info, nil
}

// CreateDeltaSyncIndex creates a triggered delta-sync index that embeds the
// configured text column with a managed embedding endpoint.
func (s *DatabricksVectorSearch) CreateDeltaSyncIndex(ctx context.Context, spec models.IndexSpec) error {
	req := createIndexRequest{
		Name:         spec.IndexName,
		EndpointName: spec.EndpointName,
		PrimaryKey:   spec.PrimaryKey,
		IndexType:    "DELTA_SYNC",
		DeltaSyncIndexSpec: deltaSyncIndexSpec{
			SourceTable:  spec.SourceTable,
			PipelineType: "TRIGGERED",
			EmbeddingSourceColumns: []embeddingSourceColumn{{
				Name:                       spec.TextColumn,
				EmbeddingModelEndpointName: spec.EmbeddingModel,
			}},
		},
	}
	if !spec.Options.SchemaEvolution {
		req.DeltaSyncIndexSpec.ColumnsToSync = models.SearchColumns
	}

	if err := s.client.do(ctx, http.MethodPost, vectorIndexesPath, req, nil); err != nil {
		return fmt.Errorf("failed to create index %s: %w", spec.IndexName, err)
	}
	return nil
}

func (s *DatabricksVectorSearch) SyncIndex(ctx context.Context, name string) error {
	if err := s.client.do(ctx, http.MethodPost, indexPath(name, "sync"), struct{}{}, nil); err != nil {
		return fmt.Errorf("failed to sync index %s: %w", name, err)
	}
	return nil
}

func (s *DatabricksVectorSearch) DeleteIndex(ctx context.Context, name string) error {
	if err := s.client.do(ctx, http.MethodDelete, indexPath(name), nil, nil); err != nil {
		return fmt.Errorf("failed to delete index %s: %w", name, err)
	}
	return nil
}
