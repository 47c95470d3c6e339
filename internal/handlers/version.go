package handlers

import (
	"net/http"

	"simple-gallery/internal/startup"
)

// VersionResponse is the build information plus the active thumbnail
// settings.
type VersionResponse struct {
	startup.BuildInfo
	ThumbnailEngine string `json:"thumbnailEngine"`
	ThumbnailBox    [2]int `json:"thumbnailBox"`
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	opts := h.thumbs.Options()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, VersionResponse{
		BuildInfo:       startup.GetBuildInfo(),
		ThumbnailEngine: string(opts.Engine),
		ThumbnailBox:    [2]int{opts.MaxWidth, opts.MaxHeight},
	})
}
