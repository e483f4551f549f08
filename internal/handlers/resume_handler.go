package handlers

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"careerminers/job-matcher/internal/services"
)

type ResumeHandler struct {
	search      *SearchHandler
	parser      services.ResumeParser
	maxFileSize int64
}

func NewResumeHandler(search *SearchHandler, parser services.ResumeParser, maxFileSize int64) *ResumeHandler {
	return &ResumeHandler{
		search:      search,
		parser:      parser,
		maxFileSize: maxFileSize,
	}
}

// HandleResumeSearch handles POST /jobs/search/resume. The uploaded PDF's
// text stands in for the free-text query.
func (h *ResumeHandler) HandleResumeSearch(c *fiber.Ctx) error {
	file, err := c.FormFile("resume")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "resume file is required",
		})
	}

	if file.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Resume file too large. Max size: %d bytes", h.maxFileSize),
		})
	}

	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "resume must be a PDF file",
		})
	}

	resultCount := h.search.defaultResults
	if raw := c.FormValue("result_count"); raw != "" {
		resultCount, err = strconv.Atoi(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "result_count must be an integer",
			})
		}
	}

	f, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read resume upload",
		})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read resume upload",
		})
	}

	text, err := h.parser.ExtractText(data)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to parse resume: %v", err),
		})
	}

	return h.search.respond(c, text, resultCount)
}
