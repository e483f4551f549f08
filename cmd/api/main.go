package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"careerminers/job-matcher/internal/config"
	"careerminers/job-matcher/internal/handlers"
	"careerminers/job-matcher/internal/models"
	"careerminers/job-matcher/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}
	log.Println("✅ Config loaded successfully")

	// Initialize backends
	backends, err := services.NewBackends(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize backends: %v", err)
	}
	defer backends.Close()

	matcher := backends.NewMatcher(cfg)
	presenter := services.NewResultPresenter()
	pdfParser := services.NewPDFParserService(cfg.Server.ResumeMaxChars)
	log.Printf("✅ Job matcher initialized (llm=%s, search=%s)", cfg.LLM.Provider, cfg.Search.Backend)

	// Initialize Handlers
	searchHandler := handlers.NewSearchHandler(matcher, presenter, cfg.Search.DefaultResults)
	resumeHandler := handlers.NewResumeHandler(searchHandler, pdfParser, cfg.Server.MaxUploadSize)
	log.Println("✅ Handlers initialized")

	app := NewApp(cfg, searchHandler, resumeHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// NewApp builds the fiber app with middleware and routes.
func NewApp(cfg *config.Config, searchHandler *handlers.SearchHandler, resumeHandler *handlers.ResumeHandler) *fiber.App {
	// Two model calls, each bounded by the request timeout.
	handlerBudget := 2*cfg.RequestTimeout + 10*time.Second

	app := fiber.New(fiber.Config{
		AppName:      "Job Matcher API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: handlerBudget,
		BodyLimit:    int(cfg.Server.MaxUploadSize) + 1024*1024,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/jobs/search", searchHandler.HandleSearch)
	api.Post("/jobs/search/resume", resumeHandler.HandleResumeSearch)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Job Matcher API",
			"version": "1.0.0",
			"endpoints": []string{
				"GET /api/v1/health",
				"POST /api/v1/jobs/search",
				"POST /api/v1/jobs/search/resume",
			},
		})
	})

	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(models.ErrorResponse{
		Error: err.Error(),
		Code:  code,
	})
}
