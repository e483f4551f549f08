package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"careerminers/job-matcher/internal/config"
	"careerminers/job-matcher/internal/repositories"
	"careerminers/job-matcher/internal/scheduler"
	"careerminers/job-matcher/internal/services"
)

func main() {
	log.Println("🚀 Starting index build...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backends, err := services.NewBackends(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize backends: %v", err)
	}
	defer backends.Close()

	builder, err := newBuilder(cfg, backends)
	if err != nil {
		log.Fatalf("❌ Failed to initialize index builder: %v", err)
	}

	spec := cfg.IndexSpec()

	if cfg.Index.Schedule == "" {
		if _, err := services.RunIndexBuild(ctx, builder, spec); err != nil {
			stop()
			backends.Close()
			os.Exit(1)
		}
		log.Println("✅ Index build completed successfully!")
		return
	}

	sched := scheduler.New(builder, spec, cfg.Index.Schedule)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("❌ Failed to start scheduler: %v", err)
	}

	<-ctx.Done()
	log.Println("🛑 Shutting down scheduler...")
	sched.Stop()
}

func newBuilder(cfg *config.Config, backends *services.Backends) (services.IndexBuilder, error) {
	switch cfg.Search.Backend {
	case config.BackendQdrant:
		db, err := config.InitDatabase(cfg)
		if err != nil {
			return nil, err
		}

		worker := services.NewEmbeddingWorker(backends.Gemini, backends.Vectors, cfg.Index.Concurrency, cfg.RequestTimeout)
		return services.NewQdrantIndexBuilder(
			repositories.NewPostingRepository(db),
			repositories.NewIndexStateRepository(db),
			backends.Vectors,
			worker,
		), nil
	case config.BackendDatabricks:
		indexes := services.NewDatabricksVectorSearch(backends.Databricks, cfg.Search.IndexName)
		statements := backends.Statements(cfg)
		if statements == nil {
			log.Println("⚠️  SQL_WAREHOUSE_ID not set, using the existing cleaned source table")
		}
		return services.NewDatabricksIndexBuilder(indexes, statements, cfg.Index.RawTable), nil
	default:
		return nil, fmt.Errorf("unsupported search backend %q", cfg.Search.Backend)
	}
}
