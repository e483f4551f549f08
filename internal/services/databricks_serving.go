package services

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"careerminers/job-matcher/internal/models"
)

// DatabricksServingService calls a Model Serving endpoint through its
// OpenAI-compatible chat completions route.
type DatabricksServingService struct {
	client   *openai.Client
	endpoint string
}

func NewDatabricksServingService(dbx *DatabricksClient, endpoint string) *DatabricksServingService {
	cfg := openai.DefaultConfig("")
	cfg.BaseURL = dbx.WorkspaceURL() + "/serving-endpoints"
	cfg.HTTPClient = dbx.HTTPClient()

	return &DatabricksServingService{
		client:   openai.NewClientWithConfig(cfg),
		endpoint: endpoint,
	}
}

// Complete implements SkillInferenceService.
func (s *DatabricksServingService) Complete(ctx context.Context, messages []models.ChatMessage, maxTokens int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:     s.endpoint,
		MaxTokens: maxTokens,
		Messages:  make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to query serving endpoint %s: %w", s.endpoint, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: serving endpoint %s returned no choices", ErrMalformedModelResponse, s.endpoint)
	}

	return resp.Choices[0].Message.Content, nil
}
