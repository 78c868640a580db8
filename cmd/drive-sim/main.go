package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/rally/internal/sim"
	"github.com/okian/rally/pkg/logger"
)

// Default configuration constants.
const (
	defaultTeams      = 10
	defaultEvents     = 1000
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		teams    = flag.Int("teams", defaultTeams, "Number of teams to create")
		events   = flag.Int("events", defaultEvents, "Number of scoring events to submit")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		moderate = flag.Bool("moderate", true, "Approve or reject submitted photos after the drive")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &sim.Config{
		BaseURL:  *baseURL,
		Teams:    *teams,
		Events:   *events,
		Workers:  *workers,
		Timeout:  *timeout,
		Verbose:  *verbose,
		Moderate: *moderate,
	}

	if err := sim.Run(ctx, config); err != nil {
		os.Stderr.WriteString("drive failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
