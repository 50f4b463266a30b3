// Command seed loads a running gigrank service with generated profiles,
// postings and reviews, then checks the recommendations it serves.
package main

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/gigrank/internal/seed"
)

// Default configuration constants.
const (
	defaultProfiles    = 2_000
	defaultPostings    = 5_000
	defaultReviews     = 10_000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultSettle      = 2 * time.Minute
	defaultSample      = 50
	defaultLimit       = 20
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	if err := newCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	cfg := &seed.Config{}
	var logFile string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a gigrank service with generated data and verify its rankings",
		Example: `  seed
  seed --url http://localhost:8080 --profiles 500 --postings 1000 --workers 16
  seed --seed 42 --output dataset.json --verbose`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			closeLog, err := seed.SetupLogging(logFile, cfg.Verbose)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultTestTimeout)
			defer cancel()
			return seed.Run(ctx, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	f.IntVar(&cfg.Profiles, "profiles", defaultProfiles, "number of freelancer profiles")
	f.IntVar(&cfg.Postings, "postings", defaultPostings, "number of job postings")
	f.IntVar(&cfg.Reviews, "reviews", defaultReviews, "number of reviews")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkers, "concurrent submitters")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.Settle, "settle", defaultSettle, "longest wait for the catalog to absorb the data")
	f.IntVar(&cfg.Sample, "sample", defaultSample, "freelancers and postings to verify")
	f.IntVar(&cfg.Limit, "limit", defaultLimit, "limit for recommendation requests")
	f.Uint64Var(&cfg.Seed, "seed", 0, "random seed (0 picks one)")
	f.StringVar(&cfg.OutputFile, "output", "", "write the generated dataset to this file")
	f.StringVar(&logFile, "log", "", "also write logs to this file")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "enable verbose logging")
	return cmd
}
