package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"careerminers/job-matcher/internal/handlers"
	"careerminers/job-matcher/internal/models"
	"careerminers/job-matcher/internal/services"
)

type fakeMatcher struct {
	err   error
	input string
	count int
}

func (f *fakeMatcher) Match(_ context.Context, userInput string, resultCount int) (*models.MatchOutcome, error) {
	f.input = userInput
	f.count = resultCount
	if f.err != nil {
		return nil, f.err
	}
	return &models.MatchOutcome{
		Skills:    models.SkillSet{"Go", "SQL"},
		QueryText: "Go, SQL",
		Results: []models.SearchResult{
			{JobID: "7", Title: "Backend Engineer", CompanyName: "Acme", Description: "APIs", RelevanceScore: 0.8},
		},
	}, nil
}

type fakeParser struct {
	text string
	err  error
}

func (f *fakeParser) ExtractText([]byte) (string, error) {
	return f.text, f.err
}

func newTestApp(matcher handlers.Matcher, parser services.ResumeParser) *fiber.App {
	search := handlers.NewSearchHandler(matcher, services.NewResultPresenter(), 5)
	resume := handlers.NewResumeHandler(search, parser, 1024)

	app := fiber.New()
	app.Post("/api/v1/jobs/search", search.HandleSearch)
	app.Post("/api/v1/jobs/search/resume", resume.HandleResumeSearch)
	return app
}

func postJSON(t *testing.T, app *fiber.App, target, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func TestHandleSearch_JSON(t *testing.T) {
	matcher := &fakeMatcher{}
	resp := postJSON(t, newTestApp(matcher, &fakeParser{}), "/api/v1/jobs/search", `{"query": "backend dev", "result_count": 3}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.QueryText != "Go, SQL" || body.Count != 1 || body.Results[0].JobID != "7" {
		t.Errorf("response = %+v", body)
	}
	if matcher.input != "backend dev" || matcher.count != 3 {
		t.Errorf("matcher got (%q, %d), want (backend dev, 3)", matcher.input, matcher.count)
	}
}

func TestHandleSearch_DefaultResultCount(t *testing.T) {
	matcher := &fakeMatcher{}
	postJSON(t, newTestApp(matcher, &fakeParser{}), "/api/v1/jobs/search", `{"query": "backend dev"}`)

	if matcher.count != 5 {
		t.Errorf("result count = %d, want default 5", matcher.count)
	}
}

func TestHandleSearch_TextFormat(t *testing.T) {
	resp := postJSON(t, newTestApp(&fakeMatcher{}, &fakeParser{}), "/api/v1/jobs/search?format=text", `{"query": "backend dev", "result_count": 2}`)

	data, _ := io.ReadAll(resp.Body)
	text := string(data)
	if !strings.HasPrefix(text, "Top 2 matches on the user query:\n") {
		t.Errorf("body = %q", text)
	}
	if !strings.Contains(text, "7\tBackend Engineer\tAcme\tAPIs\t0.8\n") {
		t.Errorf("body missing result row: %q", text)
	}
}

func TestHandleSearch_BadRequests(t *testing.T) {
	for _, body := range []string{`{"query": "   "}`, `not json`} {
		resp := postJSON(t, newTestApp(&fakeMatcher{}, &fakeParser{}), "/api/v1/jobs/search", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("POST %s status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestHandleSearch_ErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: 0", services.ErrInvalidResultCount), http.StatusBadRequest},
		{services.ErrEmptySkillSet, http.StatusUnprocessableEntity},
		{fmt.Errorf("wrap: %w", services.ErrMalformedModelResponse), http.StatusBadGateway},
		{fmt.Errorf("failed to search postings: %w", services.ErrIndexUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("similarity search: %w", services.ErrRequestTimeout), http.StatusGatewayTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		resp := postJSON(t, newTestApp(&fakeMatcher{err: tt.err}, &fakeParser{}), "/api/v1/jobs/search", `{"query": "x", "result_count": 1}`)
		if resp.StatusCode != tt.want {
			t.Errorf("error %v: status = %d, want %d", tt.err, resp.StatusCode, tt.want)
		}
	}
}

func resumeRequest(t *testing.T, filename string, content []byte, resultCount string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if filename != "" {
		part, err := mw.CreateFormFile("resume", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		part.Write(content)
	}
	if resultCount != "" {
		mw.WriteField("result_count", resultCount)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/search/resume", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandleResumeSearch(t *testing.T) {
	matcher := &fakeMatcher{}
	app := newTestApp(matcher, &fakeParser{text: "Go developer with SQL"})

	resp, err := app.Test(resumeRequest(t, "cv.pdf", []byte("%PDF-1.4"), "4"), -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if matcher.input != "Go developer with SQL" || matcher.count != 4 {
		t.Errorf("matcher got (%q, %d)", matcher.input, matcher.count)
	}
}

func TestHandleResumeSearch_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		count    string
		parser   *fakeParser
		want     int
	}{
		{"missing file", "", nil, "", &fakeParser{}, http.StatusBadRequest},
		{"not a pdf", "cv.docx", []byte("x"), "", &fakeParser{}, http.StatusBadRequest},
		{"too large", "cv.pdf", bytes.Repeat([]byte("x"), 2048), "", &fakeParser{}, http.StatusBadRequest},
		{"bad count", "cv.pdf", []byte("x"), "many", &fakeParser{}, http.StatusBadRequest},
		{"unreadable pdf", "cv.pdf", []byte("x"), "", &fakeParser{err: fmt.Errorf("no text content found in PDF")}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matcher := &fakeMatcher{}
			app := newTestApp(matcher, tt.parser)

			resp, err := app.Test(resumeRequest(t, tt.filename, tt.content, tt.count), -1)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if matcher.input != "" {
				t.Errorf("matcher was called with %q", matcher.input)
			}
		})
	}
}
