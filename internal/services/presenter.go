package services

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"careerminers/job-matcher/internal/models"
)

const presenterRule = "----------------------------------------------"

var fieldFolder = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

type ResultPresenter struct{}

func NewResultPresenter() *ResultPresenter {
	return &ResultPresenter{}
}

// Present renders the results in the order received, one tab-separated line
// per posting.
func (p *ResultPresenter) Present(resultCount int, results []models.SearchResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Top %d matches on the user query:\n", resultCount)
	sb.WriteString(presenterRule + "\n")
	sb.WriteString("JOB_ID\tTitle\tCompany\tJob Description\tRelevancy Score\n")
	sb.WriteString(presenterRule + "\n")

	for _, result := range results {
		sb.WriteString(strings.Join([]string{
			fieldFolder.Replace(result.JobID),
			fieldFolder.Replace(result.Title),
			fieldFolder.Replace(result.CompanyName),
			fieldFolder.Replace(result.Description),
			strconv.FormatFloat(result.RelevanceScore, 'f', -1, 64),
		}, "\t"))
		sb.WriteString("\n")
	}

	return sb.String()
}

// WriteResults writes the Present output to w.
func (p *ResultPresenter) WriteResults(w io.Writer, resultCount int, results []models.SearchResult) error {
	_, err := io.WriteString(w, p.Present(resultCount, results))
	return err
}
