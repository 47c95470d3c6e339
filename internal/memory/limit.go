package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"simple-gallery/internal/logging"
)

const (
	// DefaultMemoryRatio is the share of the container limit given to the Go
	// heap. The rest covers goroutine stacks, decode buffers held outside
	// the heap accounting and the OS.
	DefaultMemoryRatio = 0.85
)

// LimitResult describes what ApplyLimit did.
type LimitResult struct {
	// Configured indicates whether a Go memory limit is in effect
	Configured bool

	// Source is "GOMEMLIMIT", "memory.limit" or "none"
	Source string

	// ContainerLimit is the configured container limit in bytes (0 if unset)
	ContainerLimit int64

	// GoMemLimit is the resulting Go memory limit in bytes (0 if unset)
	GoMemLimit int64

	// Ratio is the ratio applied (0 if not applicable)
	Ratio float64
}

// ApplyLimit sets the Go memory limit to containerLimit*ratio. An explicit
// GOMEMLIMIT environment variable always wins. A zero containerLimit leaves
// the runtime alone. Call it before the first thumbnails are decoded.
func ApplyLimit(containerLimit int64, ratio float64) LimitResult {
	result := LimitResult{}

	if goMemLimitEnv := os.Getenv("GOMEMLIMIT"); goMemLimitEnv != "" {
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.Source = "GOMEMLIMIT"
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", goMemLimitEnv)
		return result
	}

	if containerLimit <= 0 {
		logging.Debug("memory.limit not set, GOMEMLIMIT will not be configured")
		result.Source = "none"
		return result
	}

	if ratio <= 0 || ratio > 1 {
		logging.Warn("Memory ratio %v out of range (0.0-1.0], using default %.2f", ratio, DefaultMemoryRatio)
		ratio = DefaultMemoryRatio
	}

	goMemLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	result.Configured = true
	result.Source = "memory.limit"
	result.ContainerLimit = containerLimit
	result.GoMemLimit = goMemLimit
	result.Ratio = ratio

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		formatBytes(goMemLimit),
		ratio*100,
		formatBytes(containerLimit),
	)

	return result
}

// formatBytes formats bytes into human-readable string
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
