package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"simple-gallery/cmd/warm"
	"simple-gallery/internal/filesystem"
	"simple-gallery/internal/gallery"
	"simple-gallery/internal/handlers"
	"simple-gallery/internal/logging"
	"simple-gallery/internal/media"
	"simple-gallery/internal/memory"
	"simple-gallery/internal/metrics"
	"simple-gallery/internal/middleware"
	"simple-gallery/internal/startup"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "simple-gallery",
		Short:        "Serve image thumbnails and downloads for a gallery directory",
		Version:      startup.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the JSON config file (default ./sgConfig.json)")

	rootCmd.AddCommand(warm.Command(&configPath))
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(configPath string) error {
	startTime := time.Now()

	// Load configuration
	loader, config, err := startup.LoadConfig(configPath)
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	setLogLevel(config.LogLevel)
	memory.ApplyLimit(config.MemoryLimit, config.MemoryRatio)

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(config.Volumes()))
	metrics.InitializeMetrics()

	// Initialize thumbnail cache
	thumbs, err := media.NewThumbnailCache(config.ThumbnailOptions(), config.Workers)
	if err != nil {
		startup.LogFatal("Failed to initialize thumbnail cache: %v", err)
	}

	// Pause decoding while memory is critical
	monitor := memory.NewMonitor(memory.DefaultConfig())
	thumbs.SetBackpressure(monitor)
	monitor.Start()

	provider, err := gallery.New(config.GalleryDir, config.Types, config.AllowFolders)
	if err != nil {
		startup.LogFatal("Failed to open gallery: %v", err)
	}

	// Initialize handlers
	h := handlers.New(thumbs, provider, config.Types)
	h.SetMemoryMonitor(monitor)

	// Setup router
	router := setupRouter(h, config.MetricsEnabled)
	startup.LogHTTPRoutes(router)

	// Apply metrics middleware
	var handler http.Handler = router
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	// Sample the cache directory into gauges
	var collector *metrics.Collector
	if config.MetricsEnabled && config.CacheDir != "" {
		collector = metrics.NewCollector(thumbs, time.Minute)
		collector.Start()
	}

	// Apply config file changes without a restart
	store := startup.NewStore(loader, config)
	store.Subscribe(func(cfg *startup.Config) {
		applyConfig(cfg, thumbs, h)
	})
	store.Watch()

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	done := make(chan struct{})
	go func() {
		handleShutdown(srv, collector, monitor)
		close(done)
	}()

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}

	<-done
	return nil
}

func setupRouter(h *handlers.Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	if metricsEnabled {
		r.Handle("/metrics", h.MetricsHandler()).Methods(http.MethodGet)
	}

	// Gallery: ?m=1 thumbnail, ?m=2 download
	r.HandleFunc("/", h.Gallery).Methods(http.MethodGet, http.MethodHead).Name("gallery")

	return r
}

// applyConfig pushes a reloaded configuration into the running components.
// The port and metrics settings only take effect after a restart.
func applyConfig(cfg *startup.Config, thumbs *media.ThumbnailCache, h *handlers.Handlers) {
	setLogLevel(cfg.LogLevel)
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(cfg.Volumes()))

	if err := thumbs.SetOptions(cfg.ThumbnailOptions()); err != nil {
		logging.Error("Failed to apply thumbnail settings: %v", err)
	}

	provider, err := gallery.New(cfg.GalleryDir, cfg.Types, cfg.AllowFolders)
	if err != nil {
		logging.Error("Failed to open gallery %s, keeping the previous one: %v", cfg.GalleryDir, err)
		return
	}
	h.SetGallery(provider, cfg.Types)
}

func setLogLevel(name string) {
	if level, ok := logging.ParseLevel(name); ok {
		logging.SetLevel(level)
	}
}

func handleShutdown(srv *http.Server, collector *metrics.Collector, monitor *memory.Monitor) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if collector != nil {
		startup.LogShutdownStep("Stopping metrics collector")
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	startup.LogShutdownStep("Stopping memory monitor")
	monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
