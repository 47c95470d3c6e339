package handlers

import (
	"errors"
	"net/http"
	"strings"

	"simple-gallery/internal/gallery"
	"simple-gallery/internal/logging"
)

const (
	modeThumbnail = "1"
	modeDownload  = "2"
)

// Gallery dispatches requests to "/" by their m parameter.
func (h *Handlers) Gallery(w http.ResponseWriter, r *http.Request) {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("m"))) {
	case modeThumbnail:
		h.GetThumbnail(w, r)
	case modeDownload:
		h.Download(w, r)
	default:
		http.NotFound(w, r)
	}
}

// resolveImage maps the f parameter to an image inside the gallery. It
// writes the error response itself and reports false when there is nothing
// to serve.
func (h *Handlers) resolveImage(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := strings.TrimSpace(r.URL.Query().Get("f"))
	if name == "" {
		http.Error(w, "File name is required", http.StatusBadRequest)
		return "", false
	}

	g := h.gallery()
	path, err := g.provider.Resolve(name)
	if err != nil {
		switch {
		case errors.Is(err, gallery.ErrNotFound),
			errors.Is(err, gallery.ErrOutsideRoot),
			errors.Is(err, gallery.ErrFoldersDisabled):
			logging.Debug("Gallery: %v", err)
			http.NotFound(w, r)
		default:
			logging.Error("Gallery: failed to resolve %q: %v", name, err)
			http.Error(w, "Failed to access file", http.StatusInternalServerError)
		}
		return "", false
	}

	if !g.types.IsImageFile(path) {
		logging.Debug("Gallery: not a supported image: %s", path)
		http.NotFound(w, r)
		return "", false
	}

	return path, true
}
