package filesystem

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"simple-gallery/internal/logging"
)

// WriteFileAtomic creates or replaces path with the bytes produced by fill.
//
// The content is written to a uniquely named temporary file in the same
// directory, flushed, synced and closed, and only then renamed over path.
// Readers therefore see either the previous file or the complete new one.
// On any failure the temporary file is removed and path is left untouched.
func WriteFileAtomic(path string, perm os.FileMode, fill func(w io.Writer) error) (err error) {
	start := time.Now()
	defer func() {
		if obs := observe(); obs != nil {
			obs.ObserveWrite(defaultResolver.Resolve(path), time.Since(start).Seconds(), err)
		}
	}()

	dir := filepath.Dir(path)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if closeErr := f.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			logging.Debug("closing temp file %s: %v", tmpPath, closeErr)
		}
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logging.Warn("failed to remove temp file %s: %v", tmpPath, rmErr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err = fill(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", tmpPath, err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmpPath, err)
	}

	committed = true
	return nil
}
