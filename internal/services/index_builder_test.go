package services_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"careerminers/job-matcher/internal/models"
	"careerminers/job-matcher/internal/services"
)

func posting(id, company, title, desc string) models.JobPosting {
	return models.JobPosting{JobID: id, CompanyName: company, Title: title, Description: desc}
}

func TestDedupePostings(t *testing.T) {
	rows := []models.JobPosting{
		posting("1", "Acme", "Data Engineer", "Spark"),
		posting("2", "Globex", "Analyst", "SQL"),
		posting("1", "Acme", "Data Engineer", "Spark"),
		posting("3", "Initech", "SRE", "Kubernetes"),
		posting("3", "Initech", "SRE", "Terraform"),
		posting("4", "", "Designer", "Figma"),
		posting("5", "Hooli", "  ", "Go"),
		posting("6", "Umbrella", "ML Engineer", "PyTorch"),
	}

	got := services.DedupePostings(rows)
	want := []models.JobPosting{
		posting("1", "Acme", "Data Engineer", "Spark"),
		posting("2", "Globex", "Analyst", "SQL"),
		posting("6", "Umbrella", "ML Engineer", "PyTorch"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DedupePostings = %+v, want %+v", got, want)
	}
}

func TestContentHash_ChangesWithAnyField(t *testing.T) {
	base := posting("1", "Acme", "Data Engineer", "Spark")
	variants := []models.JobPosting{
		posting("2", "Acme", "Data Engineer", "Spark"),
		posting("1", "Acme Corp", "Data Engineer", "Spark"),
		posting("1", "Acme", "Senior Data Engineer", "Spark"),
		posting("1", "Acme", "Data Engineer", "Spark and Kafka"),
	}

	if services.ContentHash(base) != services.ContentHash(base) {
		t.Fatal("ContentHash is not deterministic")
	}
	for _, v := range variants {
		if services.ContentHash(v) == services.ContentHash(base) {
			t.Errorf("ContentHash(%+v) collides with base", v)
		}
	}
}

func TestPlanDeltaSync(t *testing.T) {
	unchanged := posting("1", "Acme", "Data Engineer", "Spark")
	changed := posting("2", "Globex", "Analyst", "SQL and Python")
	added := posting("3", "Initech", "SRE", "Kubernetes")

	indexed := map[string]string{
		"1": services.ContentHash(unchanged),
		"2": services.ContentHash(posting("2", "Globex", "Analyst", "SQL")),
		"9": "stale",
		"8": "stale",
	}

	plan := services.PlanDeltaSync([]models.JobPosting{unchanged, changed, added}, indexed)

	if plan.Unchanged != 1 {
		t.Errorf("Unchanged = %d, want 1", plan.Unchanged)
	}
	if !reflect.DeepEqual(plan.Upsert, []models.JobPosting{changed, added}) {
		t.Errorf("Upsert = %+v", plan.Upsert)
	}
	if !reflect.DeepEqual(plan.Delete, []string{"8", "9"}) {
		t.Errorf("Delete = %v, want [8 9]", plan.Delete)
	}
}

type fakeIndexManager struct {
	getErr  error
	calls   []string
	created models.IndexSpec
}

func (f *fakeIndexManager) GetIndex(_ context.Context, name string) (*services.VectorIndexInfo, error) {
	f.calls = append(f.calls, "get")
	if f.getErr != nil {
		return nil, f.getErr
	}
	info := &services.VectorIndexInfo{Name: name}
	info.Status.IndexedRowCount = 42
	return info, nil
}

func (f *fakeIndexManager) CreateDeltaSyncIndex(_ context.Context, spec models.IndexSpec) error {
	f.calls = append(f.calls, "create")
	f.created = spec
	return nil
}

func (f *fakeIndexManager) SyncIndex(context.Context, string) error {
	f.calls = append(f.calls, "sync")
	return nil
}

func (f *fakeIndexManager) DeleteIndex(context.Context, string) error {
	f.calls = append(f.calls, "delete")
	return nil
}

type fakeStatements struct {
	statements []string
}

func (f *fakeStatements) Execute(_ context.Context, statement string) error {
	f.statements = append(f.statements, statement)
	return nil
}

func TestDatabricksIndexBuilder_Modes(t *testing.T) {
	notFound := &services.DatabricksAPIError{StatusCode: 404, ErrorCode: "RESOURCE_DOES_NOT_EXIST"}

	tests := []struct {
		name      string
		getErr    error
		deltaSync bool
		wantCalls []string
		wantMode  models.BuildMode
	}{
		{"missing index is created", notFound, true, []string{"get", "create"}, models.BuildModeCreated},
		{"existing index is synced", nil, true, []string{"get", "sync"}, models.BuildModeSynced},
		{"existing index is rebuilt without delta sync", nil, false, []string{"get", "delete", "create"}, models.BuildModeRebuilt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indexes := &fakeIndexManager{getErr: tt.getErr}
			statements := &fakeStatements{}
			builder := services.NewDatabricksIndexBuilder(indexes, statements, "workspace.default.postings")

			spec := models.IndexSpec{
				IndexName:   testIndex,
				SourceTable: "workspace.default.posting_cleaned",
				Options:     models.SyncOptions{DeltaSync: tt.deltaSync, SchemaEvolution: true},
			}

			report, err := builder.Build(context.Background(), spec)
			if err != nil {
				t.Fatalf("Build unexpected error: %v", err)
			}
			if report.Mode != tt.wantMode {
				t.Errorf("Mode = %q, want %q", report.Mode, tt.wantMode)
			}
			if !reflect.DeepEqual(indexes.calls, tt.wantCalls) {
				t.Errorf("calls = %v, want %v", indexes.calls, tt.wantCalls)
			}
			if len(statements.statements) != 1 {
				t.Errorf("ran %d cleaning statements, want 1", len(statements.statements))
			}
		})
	}
}

func TestDatabricksIndexBuilder_NoWarehouseSkipsCleaning(t *testing.T) {
	indexes := &fakeIndexManager{}
	builder := services.NewDatabricksIndexBuilder(indexes, nil, "workspace.default.postings")

	if _, err := builder.Build(context.Background(), models.IndexSpec{IndexName: testIndex, Options: models.SyncOptions{DeltaSync: true}}); err != nil {
		t.Fatalf("Build unexpected error: %v", err)
	}
}

func TestDatabricksIndexBuilder_GetIndexFailure(t *testing.T) {
	indexes := &fakeIndexManager{getErr: &services.DatabricksAPIError{StatusCode: 403, ErrorCode: "PERMISSION_DENIED"}}
	builder := services.NewDatabricksIndexBuilder(indexes, nil, "workspace.default.postings")

	_, err := builder.Build(context.Background(), models.IndexSpec{IndexName: testIndex})
	if err == nil {
		t.Fatal("Build expected error")
	}
	if !reflect.DeepEqual(indexes.calls, []string{"get"}) {
		t.Errorf("calls = %v, want only get", indexes.calls)
	}
}

func newQdrantBuilder(source *fakePostingSource, state *fakeStateStore, store *fakeVectorStore, embedder *fakeEmbedder) *services.QdrantIndexBuilder {
	worker := services.NewEmbeddingWorker(embedder, store, 3, time.Second)
	return services.NewQdrantIndexBuilder(source, state, store, worker)
}

func TestQdrantIndexBuilder_CreateThenDeltaSync(t *testing.T) {
	source := &fakePostingSource{rows: []models.JobPosting{
		posting("1", "Acme", "Data Engineer", "Spark"),
		posting("2", "Globex", "Analyst", "SQL"),
		posting("3", "Initech", "SRE", "Kubernetes"),
	}}
	state := newFakeStateStore()
	store := newFakeVectorStore()
	store.created = true
	embedder := &fakeEmbedder{}
	builder := newQdrantBuilder(source, state, store, embedder)

	spec := models.IndexSpec{IndexName: "job_postings", Options: models.SyncOptions{DeltaSync: true, SchemaEvolution: true}}

	report, err := builder.Build(context.Background(), spec)
	if err != nil {
		t.Fatalf("first Build unexpected error: %v", err)
	}
	if report.Mode != models.BuildModeCreated || report.Upserted != 3 || report.SourceRows != 3 {
		t.Errorf("first report = %+v", report)
	}
	if len(store.points) != 3 {
		t.Errorf("store has %d points, want 3", len(store.points))
	}

	source.rows = []models.JobPosting{
		posting("1", "Acme", "Data Engineer", "Spark"),
		posting("2", "Globex", "Analyst", "SQL and Python"),
		posting("4", "Hooli", "Gopher", "Go"),
	}
	store.created = false

	report, err = builder.Build(context.Background(), spec)
	if err != nil {
		t.Fatalf("second Build unexpected error: %v", err)
	}
	if report.Mode != models.BuildModeSynced {
		t.Errorf("Mode = %q, want synced", report.Mode)
	}
	if report.Upserted != 2 || report.Deleted != 1 || report.Unchanged != 1 {
		t.Errorf("second report = %+v, want 2 upserted, 1 deleted, 1 unchanged", report)
	}
	if !reflect.DeepEqual(store.deleted, []string{"3"}) {
		t.Errorf("deleted = %v, want [3]", store.deleted)
	}
	if _, ok := state.hashes["job_postings"]["3"]; ok {
		t.Error("sync state still tracks deleted posting 3")
	}
	if got := state.hashes["job_postings"]["2"]; got != services.ContentHash(posting("2", "Globex", "Analyst", "SQL and Python")) {
		t.Errorf("sync state hash for 2 = %q, want updated hash", got)
	}
}

func TestQdrantIndexBuilder_RebuildWithoutDeltaSync(t *testing.T) {
	source := &fakePostingSource{rows: []models.JobPosting{posting("1", "Acme", "Data Engineer", "Spark")}}
	state := newFakeStateStore()
	state.hashes["job_postings"] = map[string]string{"1": services.ContentHash(source.rows[0])}
	store := newFakeVectorStore()
	builder := newQdrantBuilder(source, state, store, &fakeEmbedder{})

	report, err := builder.Build(context.Background(), models.IndexSpec{IndexName: "job_postings"})
	if err != nil {
		t.Fatalf("Build unexpected error: %v", err)
	}
	if report.Mode != models.BuildModeRebuilt || report.Upserted != 1 || report.Unchanged != 0 {
		t.Errorf("report = %+v, want full rebuild", report)
	}
	if store.recreated != 1 || state.resets != 1 {
		t.Errorf("recreated = %d, resets = %d, want 1 each", store.recreated, state.resets)
	}
}

func TestQdrantIndexBuilder_PartialFailureKeepsSuccesses(t *testing.T) {
	source := &fakePostingSource{rows: []models.JobPosting{
		posting("1", "Acme", "Data Engineer", "Spark"),
		posting("2", "Globex", "Analyst", "broken"),
	}}
	state := newFakeStateStore()
	store := newFakeVectorStore()
	store.created = true
	embedder := &fakeEmbedder{fail: map[string]bool{"broken": true}}
	builder := newQdrantBuilder(source, state, store, embedder)

	report, err := builder.Build(context.Background(), models.IndexSpec{IndexName: "job_postings", Options: models.SyncOptions{DeltaSync: true}})
	if err == nil {
		t.Fatal("Build expected error for failed posting")
	}
	if report == nil || report.Upserted != 1 {
		t.Fatalf("report = %+v, want 1 upserted", report)
	}
	if _, ok := state.hashes["job_postings"]["1"]; !ok {
		t.Error("successful posting missing from sync state")
	}
	if _, ok := state.hashes["job_postings"]["2"]; ok {
		t.Error("failed posting recorded in sync state")
	}
}

func TestQdrantIndexBuilder_EnsureCollectionError(t *testing.T) {
	store := newFakeVectorStore()
	store.ensureErr = errors.New("connection refused")
	builder := newQdrantBuilder(&fakePostingSource{}, newFakeStateStore(), store, &fakeEmbedder{})

	if _, err := builder.Build(context.Background(), models.IndexSpec{IndexName: "job_postings"}); err == nil {
		t.Fatal("Build expected error")
	}
}

func TestQdrantSearchService(t *testing.T) {
	store := newFakeVectorStore()
	store.searchResult = []models.SearchResult{{JobID: "1", RelevanceScore: 0.9}}
	search := services.NewQdrantSearchService(&fakeEmbedder{}, store)

	results, err := search.SimilaritySearch(context.Background(), services.SimilarityQuery{QueryText: "Go", NumResults: 1})
	if err != nil || len(results) != 1 {
		t.Fatalf("SimilaritySearch = %v, %v", results, err)
	}

	store.searchErr = errors.New("qdrant down")
	_, err = search.SimilaritySearch(context.Background(), services.SimilarityQuery{QueryText: "Go", NumResults: 1})
	if !errors.Is(err, services.ErrIndexUnavailable) {
		t.Errorf("SimilaritySearch error = %v, want ErrIndexUnavailable", err)
	}
}

func TestPointIDForJob_Stable(t *testing.T) {
	if services.PointIDForJob("123") != services.PointIDForJob("123") {
		t.Error("PointIDForJob is not deterministic")
	}
	if services.PointIDForJob("123") == services.PointIDForJob("124") {
		t.Error("PointIDForJob collides for distinct ids")
	}
}
