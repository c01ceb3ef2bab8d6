package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"pysemver/internal/query"
)

// newEngine creates the query engine for the resolved repository.
func newEngine() (*query.Engine, error) {
	return query.NewEngine(repoRoot, logger, cfg)
}

// newContext creates a context that is cancelled on interrupt.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
