package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"careerminers/job-matcher/internal/models"
	"careerminers/job-matcher/internal/services"
)

// Matcher is the query pipeline behind the search endpoints.
type Matcher interface {
	Match(ctx context.Context, userInput string, resultCount int) (*models.MatchOutcome, error)
}

type SearchHandler struct {
	matcher        Matcher
	presenter      *services.ResultPresenter
	defaultResults int
}

func NewSearchHandler(matcher Matcher, presenter *services.ResultPresenter, defaultResults int) *SearchHandler {
	return &SearchHandler{
		matcher:        matcher,
		presenter:      presenter,
		defaultResults: defaultResults,
	}
}

// HandleSearch handles POST /jobs/search
func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	var req models.SearchRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if strings.TrimSpace(req.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "query is required",
		})
	}

	resultCount := h.defaultResults
	if req.ResultCount != nil {
		resultCount = *req.ResultCount
	}

	return h.respond(c, req.Query, resultCount)
}

func (h *SearchHandler) respond(c *fiber.Ctx, userInput string, resultCount int) error {
	outcome, err := h.matcher.Match(c.UserContext(), userInput, resultCount)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if c.Query("format") == "text" {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(h.presenter.Present(resultCount, outcome.Results))
	}

	return c.JSON(models.SearchResponse{
		Skills:    outcome.Skills,
		QueryText: outcome.QueryText,
		Count:     len(outcome.Results),
		Results:   outcome.Results,
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidResultCount):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrEmptySkillSet):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrMalformedModelResponse):
		return fiber.StatusBadGateway
	case errors.Is(err, services.ErrIndexUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, services.ErrRequestTimeout):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}
