// Command jobsearch extracts skills from free text and prints the postings
// that match them best.
//
//	jobsearch "<user input>" <resultCount>
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"careerminers/job-matcher/internal/config"
	"careerminers/job-matcher/internal/services"
)

var errUsage = errors.New(`usage: jobsearch "<user input>" <resultCount>`)

func main() {
	log.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	userInput, resultCount, err := parseArgs(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	backends, err := services.NewBackends(cfg)
	if err != nil {
		return err
	}
	defer backends.Close()

	results, err := backends.NewMatcher(cfg).FindJobs(ctx, userInput, resultCount)
	if err != nil {
		return err
	}

	return services.NewResultPresenter().WriteResults(stdout, resultCount, results)
}

func parseArgs(args []string) (string, int, error) {
	if len(args) != 2 {
		return "", 0, errUsage
	}

	resultCount, err := strconv.Atoi(args[1])
	if err != nil {
		return "", 0, fmt.Errorf("%w: resultCount %q is not an integer", errUsage, args[1])
	}
	if resultCount <= 0 {
		return "", 0, fmt.Errorf("%w: %d", services.ErrInvalidResultCount, resultCount)
	}

	return args[0], resultCount, nil
}
