package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"simple-gallery/internal/filesystem"
	"simple-gallery/internal/logging"
)

// Download sends the original image named by f as an attachment. Range
// requests are honoured.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	path, ok := h.resolveImage(w, r)
	if !ok {
		return
	}

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		logging.Error("Download: failed to open %s: %v", path, err)
		http.Error(w, "Failed to access file", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		logging.Error("Download: failed to stat %s: %v", path, err)
		http.Error(w, "Failed to access file", http.StatusInternalServerError)
		return
	}

	name := filepath.Base(path)
	w.Header().Set("Content-Type", h.gallery().types.MimeTypeOf(path))
	w.Header().Set("Content-Disposition", contentDisposition(name))

	http.ServeContent(w, r, name, info.ModTime(), f)
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", "")

func contentDisposition(name string) string {
	return fmt.Sprintf(`attachment; filename="%s"`, quoteEscaper.Replace(name))
}
