package models

import "strings"

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// SearchColumns are the posting columns requested from every similarity search.
var SearchColumns = []string{"job_id", "title", "company_name", "description"}

// SkillSet is the ordered skill list extracted from a user query.
type SkillSet []string

// QueryText joins the skills into the text sent to the semantic index.
func (s SkillSet) QueryText() string {
	return strings.Join(s, ", ")
}

// Empty reports whether no skill carries any text.
func (s SkillSet) Empty() bool {
	for _, skill := range s {
		if strings.TrimSpace(skill) != "" {
			return false
		}
	}
	return true
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type SearchResult struct {
	JobID          string  `json:"job_id"`
	Title          string  `json:"title"`
	CompanyName    string  `json:"company_name"`
	Description    string  `json:"description"`
	RelevanceScore float64 `json:"relevance_score"`
}

type MatchOutcome struct {
	Skills    SkillSet       `json:"skills"`
	QueryText string         `json:"query_text"`
	Results   []SearchResult `json:"results"`
}
