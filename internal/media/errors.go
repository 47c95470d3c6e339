package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/h2non/filetype"
)

var (
	// ErrNotAnImage is returned for files whose MIME type the thumbnail
	// pipeline does not decode. Callers treat such files as non-displayable
	// rather than broken.
	ErrNotAnImage = errors.New("not a supported image")

	// ErrCacheDisabled is returned by operations that need the cache
	// directory when none is configured or it cannot be created.
	ErrCacheDisabled = errors.New("thumbnail cache disabled")

	// ErrExifNotSupported is returned by ReadOrientation for formats that
	// never carry EXIF data.
	ErrExifNotSupported = errors.New("exif not supported for this format")

	// ErrEncode wraps failures of the JPEG encoder.
	ErrEncode = errors.New("thumbnail encoding failed")
)

// DecodeError reports an original whose extension names a supported format
// but whose content could not be decoded.
type DecodeError struct {
	Path     string
	MimeType string
	// Detected is the MIME type sniffed from the content, or "unknown".
	Detected string
	Err      error
}

func (e *DecodeError) Error() string {
	name := e.Path
	if name == "" {
		name = "image"
	}
	if e.Detected != "" && e.Detected != e.MimeType {
		return fmt.Sprintf("decode %s as %s (content looks like %s): %v", name, e.MimeType, e.Detected, e.Err)
	}
	return fmt.Sprintf("decode %s as %s: %v", name, e.MimeType, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Outcome is the tri-state result of a thumbnail operation.
type Outcome int

const (
	// OutcomeOK means a thumbnail was produced.
	OutcomeOK Outcome = iota
	// OutcomeNotApplicable means the file is not an image; nothing to show.
	OutcomeNotApplicable
	// OutcomeFailed means the file should have produced a thumbnail but did not.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotApplicable:
		return "not_applicable"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Classify maps an error returned by this package to an Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNotAnImage):
		return OutcomeNotApplicable
	default:
		return OutcomeFailed
	}
}

// generationStatus is the metrics label for a failed generation.
func generationStatus(err error) string {
	var decodeErr *DecodeError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &decodeErr):
		return "error_decode"
	case errors.Is(err, ErrEncode):
		return "error_encode"
	case errors.Is(err, context.DeadlineExceeded):
		return "error_timeout"
	default:
		return "error"
	}
}

// sniff returns the MIME type suggested by the content's magic bytes.
func sniff(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "unknown"
	}
	return kind.MIME.Value
}
