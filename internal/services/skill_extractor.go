package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"careerminers/job-matcher/internal/models"
)

// SkillInferenceService is a hosted chat-completion model.
type SkillInferenceService interface {
	Complete(ctx context.Context, messages []models.ChatMessage, maxTokens int) (string, error)
}

type SkillExtractor struct {
	inference     SkillInferenceService
	promptBuilder *PromptBuilder
	maxTokens     int
}

func NewSkillExtractor(inference SkillInferenceService, maxTokens int) *SkillExtractor {
	return &SkillExtractor{
		inference:     inference,
		promptBuilder: NewPromptBuilder(),
		maxTokens:     maxTokens,
	}
}

func (s *SkillExtractor) ExtractSkills(ctx context.Context, userInput string) (models.SkillSet, error) {
	messages := s.promptBuilder.BuildSkillExtractionMessages(userInput)

	response, err := s.inference.Complete(ctx, messages, s.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to call skill inference endpoint: %w", err)
	}

	log.Printf("📊 Skill extraction response received: %d characters", len(response))

	skills, err := ParseSkillResponse(response)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Skills required: %s", skills.QueryText())
	return skills, nil
}

type skillResponse struct {
	Skills *[]*string `json:"skills"`
}

// ParseSkillResponse accepts exactly one JSON object whose only key is
// "skills", holding an array of strings. Surrounding whitespace and a single
// markdown code fence are tolerated; everything else is rejected.
func ParseSkillResponse(response string) (models.SkillSet, error) {
	payload := stripCodeFence(response)
	if payload == "" {
		return nil, malformed("empty response", response)
	}

	decoder := json.NewDecoder(strings.NewReader(payload))
	decoder.DisallowUnknownFields()

	var parsed skillResponse
	if err := decoder.Decode(&parsed); err != nil {
		return nil, malformed(err.Error(), response)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, malformed("unexpected content after JSON object", response)
	}

	if parsed.Skills == nil {
		return nil, malformed(`missing "skills" array`, response)
	}

	skills := make(models.SkillSet, 0, len(*parsed.Skills))
	for i, skill := range *parsed.Skills {
		if skill == nil {
			return nil, malformed(fmt.Sprintf("skill %d is null", i), response)
		}
		skills = append(skills, *skill)
	}

	return skills, nil
}

func malformed(reason, response string) error {
	const maxSnippet = 200
	snippet := response
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet] + "..."
	}
	return fmt.Errorf("%w: %s (response: %q)", ErrMalformedModelResponse, reason, snippet)
}

// stripCodeFence removes a ```json ... ``` wrapper some models add.
func stripCodeFence(input string) string {
	clean := strings.TrimSpace(input)
	if !strings.HasPrefix(clean, "```") {
		return clean
	}

	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimSpace(clean)
	clean = strings.TrimSuffix(clean, "```")

	return strings.TrimSpace(clean)
}
