package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"fqindex/internal/database"
	"fqindex/internal/handlers"
	"fqindex/internal/indexer"
	"fqindex/internal/logging"
	"fqindex/internal/metrics"
	"fqindex/internal/middleware"
	"fqindex/internal/startup"
)

const (
	statsInterval   = time.Minute
	shutdownTimeout = 30 * time.Second
)

// runDaemon runs the polling scheduler until ctx is cancelled, serving the
// operational endpoints alongside when metrics are enabled.
func runDaemon(ctx context.Context, cfg *startup.Config, store *database.Store, idx *indexer.Indexer) error {
	metrics.InitializeMetrics()
	metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, startup.GoVersion).Set(1)

	collector := metrics.NewCollector(store, statsInterval)
	collector.Start()
	defer collector.Stop()

	var srv *http.Server
	metricsAddr := ""
	if cfg.MetricsEnabled {
		metricsAddr = net.JoinHostPort("", cfg.MetricsPort)
		srv = newServer(metricsAddr, idx, store)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("HTTP server error: %v", err)
			}
		}()
	}

	startup.LogDaemonStarted(cfg.PollInterval, cfg.StalenessWindow, metricsAddr)

	err := indexer.NewScheduler(idx, cfg.PollInterval, cfg.StalenessWindow).Run(ctx)

	startup.LogShutdownInitiated("context cancelled")
	idx.Stop()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logging.Warn("Server shutdown error: %v", serr)
		}
	}

	startup.LogShutdownComplete()
	return err
}

// newServer wires the operational router behind the request logging and
// metrics middleware.
func newServer(addr string, idx *indexer.Indexer, store *database.Store) *http.Server {
	router := handlers.NewRouter(handlers.New(idx, store))
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	handler := middleware.Logger(middleware.DefaultLoggingConfig())(router)

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
