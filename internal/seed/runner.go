package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/gigrank/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
	settlePollInterval  = 100 * time.Millisecond
	percentage          = 100
)

// Run generates a dataset, submits it, waits for the catalog to absorb it and
// verifies a sample of recommendations.
func Run(ctx context.Context, cfg *Config) error {
	log := logger.Get().Named("seed")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("profiles", cfg.Profiles),
		logger.Int("postings", cfg.Postings),
		logger.Int("reviews", cfg.Reviews),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
	)

	c := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := c.Health(ctx); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	ds, err := Generate(ctx, cfg, time.Now())
	if err != nil {
		return fmt.Errorf("dataset generation failed: %w", err)
	}
	stats.EventsGenerated = ds.Events()

	// Profiles first so postings can be ranked against them right away.
	submitAll(ctx, cfg, c, "/profiles", ds.Profiles, stats)
	submitAll(ctx, cfg, c, "/postings", ds.Postings, stats)
	submitAll(ctx, cfg, c, "/reviews", ds.Reviews, stats)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("submission interrupted: %w", err)
	}

	want := catalogStats{Postings: len(ds.Postings), Profiles: len(ds.Profiles), Reviews: len(ds.Reviews)}
	if err := waitForCatalog(ctx, c, want, cfg.Settle); err != nil {
		log.Warn(ctx, "catalog did not settle; verifying what is there", logger.Error(err))
	}

	if err := verifySample(ctx, cfg, c, ds, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := SaveDataset(cfg.OutputFile, ds); err != nil {
			log.Warn(ctx, "failed to save dataset", logger.Error(err))
		} else {
			log.Info(ctx, "dataset saved", logger.String("file", cfg.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return nil
}

// waitForCatalog polls /stats until every count reaches want or settle
// elapses.
func waitForCatalog(ctx context.Context, c *Client, want catalogStats, settle time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, settle)
	defer cancel()

	ticker := time.NewTicker(settlePollInterval)
	defer ticker.Stop()
	for {
		got, err := c.stats(ctx)
		if err == nil && got.Postings >= want.Postings && got.Profiles >= want.Profiles && got.Reviews >= want.Reviews {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("catalog has %+v, want %+v: %w", got, want, ctx.Err())
		case <-ticker.C:
		}
	}
}

// SaveDataset writes ds as indented JSON, creating parent directories.
func SaveDataset(filename string, ds *Dataset) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := writeDataset(f, ds); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeDataset(w io.Writer, ds *Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, eventsPerSecond float64
	if stats.EventsSubmitted > 0 {
		successRate = float64(stats.EventsSuccessful) / float64(stats.EventsSubmitted) * percentage
	}
	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsSubmitted) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("eventsSubmitted", stats.EventsSubmitted),
		logger.Int("eventsSuccessful", stats.EventsSuccessful),
		logger.Int("eventsDuplicate", stats.EventsDuplicate),
		logger.Int("eventsRetried", stats.EventsRetried),
		logger.Int("eventsFailed", stats.EventsFailed),
		logger.Int("listsVerified", stats.ListsVerified),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("eventsPerSecond", eventsPerSecond),
	)
}
