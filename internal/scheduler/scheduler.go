// Package scheduler keeps the vector index in step with the postings table by
// rebuilding it on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"careerminers/job-matcher/internal/models"
	"careerminers/job-matcher/internal/services"
)

// Scheduler wraps robfig/cron and runs one index build per tick.
type Scheduler struct {
	cron    *cron.Cron
	builder services.IndexBuilder
	spec    models.IndexSpec
	when    string // cron spec, e.g. "@every 6h"

	running sync.Mutex
}

func New(builder services.IndexBuilder, spec models.IndexSpec, when string) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cron.DefaultLogger)),
		builder: builder,
		spec:    spec,
		when:    when,
	}
}

// Start registers the build job and starts the cron loop. One build also runs
// immediately so a fresh deployment does not wait for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.when, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule index build %q: %w", s.when, err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started, spec: %s", s.when)

	go s.RunOnce(ctx)

	return nil
}

// Stop halts the cron loop and waits for a running build to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[scheduler] Cron stopped")
}

// RunOnce builds the index unless a build is already in flight. It reports
// whether a build was attempted.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	if !s.running.TryLock() {
		log.Println("[scheduler] Previous index build still running, skipping tick")
		return false
	}
	defer s.running.Unlock()

	if ctx.Err() != nil {
		return false
	}

	if _, err := services.RunIndexBuild(ctx, s.builder, s.spec); err != nil {
		log.Printf("[scheduler] Index build error: %v", err)
	}
	return true
}
