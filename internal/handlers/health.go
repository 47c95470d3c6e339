package handlers

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"simple-gallery/internal/memory"
	"simple-gallery/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// CacheStatus describes the thumbnail cache in health responses.
type CacheStatus struct {
	Enabled bool   `json:"enabled"`
	Dir     string `json:"dir,omitempty"`
	Files   int    `json:"files"`
	Bytes   int64  `json:"bytes"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string      `json:"status"`
	Ready   bool        `json:"ready"`
	Version string      `json:"version"`
	Uptime  string      `json:"uptime"`
	Gallery string      `json:"gallery"`
	Cache   CacheStatus `json:"cache"`

	Memory *memory.Stats `json:"memory,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	ready := h.galleryReachable()

	response := HealthResponse{
		Status:       statusHealthy,
		Ready:        ready,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Gallery:      h.gallery().provider.Root(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if h.monitor != nil {
		stats := h.monitor.Stats()
		response.Memory = &stats
	}

	opts := h.thumbs.Options()
	response.Cache.Enabled = opts.CacheDir != ""
	response.Cache.Dir = opts.CacheDir
	if response.Cache.Enabled {
		stats, err := h.thumbs.CacheStats()
		if err != nil {
			response.Cache.Error = err.Error()
			response.Status = statusDegraded
		} else {
			response.Cache.Files = stats.Files
			response.Cache.Bytes = stats.Bytes
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if !ready {
		response.Status = statusDegraded
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
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

// ReadinessCheck returns 200 only when the gallery root can be read.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.galleryReachable() {
		w.WriteHeader(http.StatusOK)
		writeJSON(w, map[string]string{
			"status": "ready",
		})
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{
			"status": "not_ready",
		})
	}
}

func (h *Handlers) galleryReachable() bool {
	info, err := os.Stat(h.gallery().provider.Root())
	return err == nil && info.IsDir()
}
