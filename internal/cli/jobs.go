package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"fqindex/internal/database"
	"fqindex/internal/indexer"
	"fqindex/internal/logging"
	"fqindex/internal/query"
	"fqindex/internal/startup"
)

// runCreate initializes the index file and fills it from a full traversal.
func runCreate(ctx context.Context, cfg *startup.Config) error {
	startup.LogIndexerInit("BUILD")

	store, err := database.Create(cfg.DatabasePath, storeOptions(cfg))
	if err != nil {
		return err
	}

	idx := indexer.New(indexer.ConfigFrom(cfg), store)
	if err := idx.Build(ctx); err != nil {
		return err
	}

	status := idx.Status()
	logging.Info("Index created at %s with %d libraries", store.Path(), status.LastAdded)
	return nil
}

// runUpdate refreshes an existing index, either once (forced) or on the
// polling schedule until ctx is cancelled.
func runUpdate(ctx context.Context, cfg *startup.Config, store *database.Store) error {
	idx := indexer.New(indexer.ConfigFrom(cfg), store)

	if cfg.Force {
		startup.LogIndexerInit("FORCED REFRESH")
		sched := indexer.NewScheduler(idx, cfg.PollInterval, cfg.StalenessWindow)
		if err := sched.RunOnce(ctx); err != nil {
			return err
		}
		status := idx.Status()
		logging.Info("Refresh complete: %d added, %d removed", status.LastAdded, status.LastRemoved)
		return nil
	}

	startup.LogIndexerInit("REFRESH DAEMON")
	return runDaemon(ctx, cfg, store, idx)
}

// runQuery matches the manifest against one snapshot of the index and
// writes the reports.
func runQuery(cfg *startup.Config, in *inputs) error {
	start := time.Now()

	snapshot, err := in.store.Load()
	if err != nil {
		return err
	}

	results := query.NewEngine(in.patterns).Run(snapshot, in.manifest)
	if err := query.WriteReports(cfg.OutDir, cfg.DatabasePath, results); err != nil {
		return err
	}

	summary := query.Summarize(results)
	logging.Info("Queried %d samples in %v: %d matched, %d pattern mismatch, %d not found",
		len(results), time.Since(start).Round(time.Millisecond),
		summary.Matched, summary.Mismatched, summary.NotFound)
	logging.Info("Reports written to %s", cfg.OutDir)
	return nil
}

// runSummary prints the size of the index.
func runSummary(w io.Writer, store *database.Store) error {
	stats, err := store.GetStats()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Database:  %s\n", store.Path())
	fmt.Fprintf(w, "Samples:   %d\n", stats.Samples)
	fmt.Fprintf(w, "Libraries: %d\n", stats.Paths)
	return nil
}
