package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"simple-gallery/internal/logging"
	"simple-gallery/internal/media"
)

// GetThumbnail serves the JPEG thumbnail of the image named by f.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	path, ok := h.resolveImage(w, r)
	if !ok {
		return
	}

	thumb, err := h.thumbs.GetThumbnail(r.Context(), path)
	if err != nil {
		switch {
		case media.Classify(err) == media.OutcomeNotApplicable:
			http.NotFound(w, r)
		case errors.Is(err, context.DeadlineExceeded):
			logging.Warn("Thumbnail: timed out for %s", path)
			http.Error(w, "Thumbnail generation timed out", http.StatusServiceUnavailable)
		case errors.Is(err, context.Canceled):
			logging.Debug("Thumbnail: client went away for %s", path)
		default:
			logging.Error("Thumbnail: generation failed for %s: %v", path, err)
			http.Error(w, "Failed to generate thumbnail", http.StatusInternalServerError)
		}
		return
	}

	cacheStatus := "miss"
	if thumb.CacheHit {
		cacheStatus = "hit"
	}

	w.Header().Set("Content-Type", thumb.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(thumb.Data)))
	w.Header().Set("Cache-Control", media.CacheControl)
	w.Header().Set("X-Thumbnail-Cache", cacheStatus)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(thumb.Data); err != nil {
		logging.Debug("Thumbnail: write failed for %s: %v", path, err)
	}
}
