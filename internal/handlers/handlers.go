package handlers

import (
	"sync/atomic"
	"time"

	"simple-gallery/internal/gallery"
	"simple-gallery/internal/media"
	"simple-gallery/internal/mediatypes"
	"simple-gallery/internal/memory"
)

type galleryState struct {
	provider gallery.Provider
	types    mediatypes.Table
}

// Handlers serves the gallery endpoints.
type Handlers struct {
	thumbs    *media.ThumbnailCache
	state     atomic.Pointer[galleryState]
	monitor   *memory.Monitor
	startTime time.Time
}

// New creates the handlers for a gallery.
func New(thumbs *media.ThumbnailCache, provider gallery.Provider, types mediatypes.Table) *Handlers {
	h := &Handlers{
		thumbs:    thumbs,
		startTime: time.Now(),
	}
	h.SetGallery(provider, types)
	return h
}

// SetGallery replaces the file provider and supported types, e.g. after a
// configuration reload.
func (h *Handlers) SetGallery(provider gallery.Provider, types mediatypes.Table) {
	if len(types) == 0 {
		types = mediatypes.DefaultTable()
	}
	h.state.Store(&galleryState{provider: provider, types: types})
}

// SetMemoryMonitor adds the monitor's view of memory to health responses.
func (h *Handlers) SetMemoryMonitor(m *memory.Monitor) {
	h.monitor = m
}

func (h *Handlers) gallery() *galleryState {
	return h.state.Load()
}
