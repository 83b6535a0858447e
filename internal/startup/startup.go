package startup

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"fqindex/internal/logging"

	"golang.org/x/term"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// PrintBanner prints the banner and build details. The ASCII art is skipped
// when stdout is not a terminal so cron and systemd logs stay clean.
func PrintBanner() {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println(`
------------------------------------------------------------
   __            _           _
  / _| __ _     (_)_ __   __| | _____  __
 | |_ / _' |____| | '_ \ / _' |/ _ \ \/ /
 |  _| (_| |____| | | | | (_| |  __/>  <
 |_|  \__, |    |_|_| |_|\__,_|\___/_/\_\
         |_|
------------------------------------------------------------`)
	}
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Debug("  Go version: %s, GOMAXPROCS: %d", runtime.Version(), runtime.GOMAXPROCS(0))
}

// LogIndexerInit logs the start of a build or refresh job
func LogIndexerInit(kind string) {
	logSection("INDEXER " + kind)
}

// LogDaemonStarted logs the polling loop parameters
func LogDaemonStarted(interval, window time.Duration, metricsAddr string) {
	logSection("DAEMON STARTED")
	logging.Info("  Poll interval:    %v", interval)
	logging.Info("  Staleness window: %v", window)
	if metricsAddr != "" {
		logging.Info("  Metrics:          http://%s/metrics", metricsAddr)
	} else {
		logging.Info("  Metrics:          DISABLED")
	}
	logging.Info("  Press Ctrl+C to stop")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(reason string) {
	logSection(fmt.Sprintf("SHUTDOWN INITIATED (%s)", reason))
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func logSection(title string) {
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return ErrNotDirectory
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}
