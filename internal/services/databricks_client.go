package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DatabricksAPIError is the error body returned by workspace REST APIs.
type DatabricksAPIError struct {
	StatusCode int    `json:"-"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
}

func (e *DatabricksAPIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("databricks API error %d (%s): %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("databricks API error %d: %s", e.StatusCode, e.Message)
}

func (e *DatabricksAPIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound ||
		e.ErrorCode == "RESOURCE_DOES_NOT_EXIST" ||
		e.ErrorCode == "NOT_FOUND"
}

// DatabricksClient talks to one workspace as a service principal, using
// OAuth machine-to-machine tokens from the workspace token endpoint.
type DatabricksClient struct {
	workspaceURL string
	httpClient   *http.Client
	rest         *resty.Client
}

func NewDatabricksClient(workspaceURL, clientID, clientSecret string, tokenTimeout time.Duration) *DatabricksClient {
	workspaceURL = strings.TrimRight(workspaceURL, "/")

	oauthConfig := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     workspaceURL + "/oidc/v1/token",
		Scopes:       []string{"all-apis"},
	}

	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{
		Timeout: tokenTimeout,
	})
	httpClient := oauthConfig.Client(tokenCtx)

	rest := resty.NewWithClient(httpClient).
		SetBaseURL(workspaceURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &DatabricksClient{
		workspaceURL: workspaceURL,
		httpClient:   httpClient,
		rest:         rest,
	}
}

func (c *DatabricksClient) WorkspaceURL() string {
	return c.workspaceURL
}

// HTTPClient returns the token-injecting client for SDKs that bring their own
// request encoding.
func (c *DatabricksClient) HTTPClient() *http.Client {
	return c.httpClient
}

func (c *DatabricksClient) do(ctx context.Context, method, path string, body, result interface{}) error {
	apiErr := &DatabricksAPIError{}

	req := c.rest.R().SetContext(ctx).SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}

	if resp.IsError() {
		apiErr.StatusCode = resp.StatusCode()
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(resp.String())
		}
		return apiErr
	}

	return nil
}
