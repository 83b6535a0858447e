package handlers

import (
	"net/http"
	"runtime"
	"time"

	"fqindex/internal/startup"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Cycle info
	State       string `json:"state"`
	Running     bool   `json:"running"`
	Cycles      int64  `json:"cycles"`
	LastRun     string `json:"lastRun,omitempty"`
	LastKind    string `json:"lastKind,omitempty"`
	LastError   string `json:"lastError,omitempty"`
	LastAdded   int    `json:"lastAdded"`
	LastRemoved int    `json:"lastRemoved"`

	// Index info
	Database   string `json:"database"`
	Samples    int    `json:"samples"`
	Libraries  int    `json:"libraries"`
	StoreError string `json:"storeError,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the daemon. A failed last cycle
// degrades the status; an unreadable index file makes it unhealthy.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	status := h.indexer.Status()

	response := HealthResponse{
		Status:       statusHealthy,
		Ready:        true,
		Version:      startup.Version,
		Uptime:       status.Uptime,
		State:        string(status.State),
		Running:      status.Running,
		Cycles:       status.Cycles,
		LastKind:     status.LastKind,
		LastError:    status.LastError,
		LastAdded:    status.LastAdded,
		LastRemoved:  status.LastRemoved,
		Database:     status.Database,
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if !status.LastRun.IsZero() {
		response.LastRun = status.LastRun.Format(time.RFC3339)
	}

	if status.LastError != "" {
		response.Status = statusDegraded
	}

	stats, err := h.stats.GetStats()
	if err != nil {
		response.Status = statusUnhealthy
		response.Ready = false
		response.StoreError = err.Error()
	} else {
		response.Samples = stats.Samples
		response.Libraries = stats.Paths
	}

	w.Header().Set("Content-Type", "application/json")

	// Return 503 only if the index cannot be read at all
	if !response.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness check (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the index file can be loaded
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := h.stats.GetStats(); err == nil {
		w.WriteHeader(http.StatusOK)
		writeJSONStatus(w, "ready")
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSONStatus(w, "not_ready")
	}
}
