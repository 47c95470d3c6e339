// Package warm implements the "warm" command, which fills the thumbnail
// cache for every image in the top level of the gallery ahead of the first
// page view.
package warm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"simple-gallery/internal/gallery"
	"simple-gallery/internal/logging"
	"simple-gallery/internal/media"
	"simple-gallery/internal/memory"
	"simple-gallery/internal/startup"
	"simple-gallery/internal/workers"
)

// Report summarises a warm run. Skipped counts images that were already
// cached and listed files that cannot be decoded.
type Report struct {
	Total     int
	Generated int
	Skipped   int
	Failed    int
}

// Options controls a warm run.
type Options struct {
	// Workers overrides the worker count; 0 picks one per CPU.
	Workers int
	// DryRun lists the images without generating anything.
	DryRun bool
}

// Command creates the warm command. configPath points at the root
// command's --config flag.
func Command(configPath *string) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Generate missing thumbnails for the gallery",
		Long:  `Walk the top level of the gallery and write a cached thumbnail for every supported image that does not have one yet.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := startup.NewLoader(*configPath).Load()
			if err != nil {
				return err
			}
			memory.ApplyLimit(cfg.MemoryLimit, cfg.MemoryRatio)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := Run(ctx, cfg, opts)
			cmd.Printf("%d images: %d generated, %d skipped, %d failed\n",
				report.Total, report.Generated, report.Skipped, report.Failed)
			if err != nil {
				return err
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d thumbnails could not be generated", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "Number of parallel workers (0 = one per CPU)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "List the images that would be processed")

	return cmd
}

// Run warms the cache configured by cfg. Each image gets the configured
// thumbnail timeout. Failures of single images are logged and counted; only
// setup errors and cancellation are returned.
func Run(ctx context.Context, cfg *startup.Config, opts Options) (Report, error) {
	var report Report

	if cfg.CacheDir == "" {
		return report, media.ErrCacheDisabled
	}

	provider, err := gallery.New(cfg.GalleryDir, cfg.Types, cfg.AllowFolders)
	if err != nil {
		return report, err
	}
	names, err := provider.List()
	if err != nil {
		return report, err
	}
	report.Total = len(names)

	if opts.DryRun {
		for _, name := range names {
			logging.Info("  %s -> %s", name, media.ThumbnailFilename(name))
		}
		return report, nil
	}

	n := workers.ForCPU(0, opts.Workers)
	thumbs, err := media.NewThumbnailCache(cfg.ThumbnailOptions(), n)
	if err != nil {
		return report, err
	}

	monitor := memory.NewMonitor(memory.DefaultConfig())
	thumbs.SetBackpressure(monitor)
	monitor.Start()
	defer monitor.Stop()

	timeout := thumbs.Options().Timeout
	logging.Info("Warming %d thumbnails into %s with %d workers", len(names), cfg.CacheDir, n)

	var generated, skipped, failed atomic.Int64
	err = workers.Run(ctx, n, names, func(ctx context.Context, name string) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		path, err := provider.Resolve(name)
		if err != nil {
			logging.Warn("Skipping %s: %v", name, err)
			failed.Add(1)
			return nil
		}

		itemCtx, cancel := context.WithTimeout(ctx, timeout)
		result, err := thumbs.Warm(itemCtx, path)
		cancel()

		switch {
		case errors.Is(err, media.ErrCacheDisabled):
			return err
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			logging.Warn("Thumbnail failed for %s: %v", name, err)
			failed.Add(1)
		case result == media.WarmSkipped:
			skipped.Add(1)
		case result == media.WarmNotApplicable:
			logging.Debug("Not a decodable image, skipping %s", name)
			skipped.Add(1)
		default:
			logging.Debug("Thumbnail written for %s", name)
			generated.Add(1)
		}
		return nil
	})

	report.Generated = int(generated.Load())
	report.Skipped = int(skipped.Load())
	report.Failed = int(failed.Load())
	return report, err
}
