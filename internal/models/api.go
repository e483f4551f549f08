package models

// SearchRequest is the body of POST /api/v1/jobs/search. A missing
// result_count falls back to the configured default.
type SearchRequest struct {
	Query       string `json:"query"`
	ResultCount *int   `json:"result_count"`
}

type SearchResponse struct {
	Skills    SkillSet       `json:"skills"`
	QueryText string         `json:"query_text"`
	Count     int            `json:"count"`
	Results   []SearchResult `json:"results"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
