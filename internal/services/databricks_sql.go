package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"time"
)

const statementsPath = "/api/2.0/sql/statements"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*){0,2}$`)

// StatementExecutor runs one SQL statement to completion.
type StatementExecutor interface {
	Execute(ctx context.Context, statement string) error
}

// StatementRunner executes SQL on a Databricks SQL warehouse through the
// Statement Execution API, polling until the statement is terminal.
type StatementRunner struct {
	client       *DatabricksClient
	warehouseID  string
	pollInterval time.Duration
}

func NewStatementRunner(client *DatabricksClient, warehouseID string, pollInterval time.Duration) *StatementRunner {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &StatementRunner{
		client:       client,
		warehouseID:  warehouseID,
		pollInterval: pollInterval,
	}
}

type statementRequest struct {
	WarehouseID   string `json:"warehouse_id"`
	Statement     string `json:"statement"`
	WaitTimeout   string `json:"wait_timeout"`
	OnWaitTimeout string `json:"on_wait_timeout"`
}

type statementResponse struct {
	StatementID string `json:"statement_id"`
	Status      struct {
		State string `json:"state"`
		Error struct {
			ErrorCode string `json:"error_code"`
			Message   string `json:"message"`
		} `json:"error"`
	} `json:"status"`
}

func (r *StatementRunner) Execute(ctx context.Context, statement string) error {
	var resp statementResponse
	err := r.client.do(ctx, http.MethodPost, statementsPath, statementRequest{
		WarehouseID:   r.warehouseID,
		Statement:     statement,
		WaitTimeout:   "30s",
		OnWaitTimeout: "CONTINUE",
	}, &resp)
	if err != nil {
		return fmt.Errorf("failed to submit statement: %w", err)
	}

	for {
		switch resp.Status.State {
		case "SUCCEEDED":
			return nil
		case "FAILED", "CANCELED", "CLOSED":
			return fmt.Errorf("statement %s %s: %s", resp.StatementID, resp.Status.State, resp.Status.Error.Message)
		}

		log.Printf("   ⏳ Statement %s is %s", resp.StatementID, resp.Status.State)

		select {
		case <-ctx.Done():
			return fmt.Errorf("statement %s did not finish: %w", resp.StatementID, ctx.Err())
		case <-time.After(r.pollInterval):
		}

		if err := r.client.do(ctx, http.MethodGet, statementsPath+"/"+resp.StatementID, nil, &resp); err != nil {
			return fmt.Errorf("failed to poll statement %s: %w", resp.StatementID, err)
		}
	}
}

// BuildCleaningStatement materialises the cleaned postings table: distinct
// rows with every required column set, minus any job_id that still occurs
// more than once. Change data feed is enabled so a delta-sync index can
// follow the table.
func BuildCleaningStatement(rawTable, cleanedTable string) (string, error) {
	for _, name := range []string{rawTable, cleanedTable} {
		if !tableNamePattern.MatchString(name) {
			return "", fmt.Errorf("invalid table name %q", name)
		}
	}

	return fmt.Sprintf(`CREATE OR REPLACE TABLE %[2]s
TBLPROPERTIES (delta.enableChangeDataFeed = true) AS
WITH no_nulls AS (
  SELECT DISTINCT job_id, company_name, title, description
  FROM %[1]s
  WHERE job_id IS NOT NULL
    AND company_name IS NOT NULL
    AND title IS NOT NULL
    AND description IS NOT NULL
),
duplicates AS (
  SELECT job_id FROM no_nulls
  GROUP BY job_id
  HAVING COUNT(job_id) > 1
)
SELECT * FROM no_nulls
WHERE job_id NOT IN (SELECT job_id FROM duplicates)`, rawTable, cleanedTable), nil
}
