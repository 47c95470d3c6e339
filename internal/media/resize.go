package media

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	"simple-gallery/internal/filesystem"
	"simple-gallery/internal/mediatypes"
	"simple-gallery/internal/metrics"
)

// Engine selects the resampling implementation.
type Engine string

const (
	// EngineImaging resamples with disintegration/imaging's Lanczos filter.
	EngineImaging Engine = "imaging"
	// EngineNfnt resamples with nfnt/resize's Lanczos3 interpolation.
	EngineNfnt Engine = "nfnt"
)

// ParseEngine validates an engine name from configuration. An empty name
// selects EngineImaging.
func ParseEngine(s string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(s))) {
	case "", EngineImaging:
		return EngineImaging, nil
	case EngineNfnt:
		return EngineNfnt, nil
	default:
		return "", fmt.Errorf("unknown resize engine %q (want %q or %q)", s, EngineImaging, EngineNfnt)
	}
}

// Resampler scales an image to exact pixel dimensions with an interpolating
// filter.
type Resampler interface {
	Resample(src image.Image, width, height int) image.Image
}

type imagingResampler struct{}

func (imagingResampler) Resample(src image.Image, width, height int) image.Image {
	return imaging.Resize(src, width, height, imaging.Lanczos)
}

type nfntResampler struct{}

func (nfntResampler) Resample(src image.Image, width, height int) image.Image {
	return resize.Resize(uint(width), uint(height), src, resize.Lanczos3)
}

// NewResampler returns the Resampler for engine.
func NewResampler(engine Engine) (Resampler, error) {
	switch engine {
	case EngineImaging, "":
		return imagingResampler{}, nil
	case EngineNfnt:
		return nfntResampler{}, nil
	default:
		return nil, fmt.Errorf("unknown resize engine %q", engine)
	}
}

// Resizer decodes supported originals and scales them into a bounding box.
type Resizer struct {
	resampler Resampler
}

// NewResizer creates a Resizer using the given engine.
func NewResizer(engine Engine) (*Resizer, error) {
	r, err := NewResampler(engine)
	if err != nil {
		return nil, err
	}
	return &Resizer{resampler: r}, nil
}

// Resize decodes data as mime and scales it to fit maxWidth x maxHeight.
//
// Unsupported MIME types return ErrNotAnImage; content that cannot be
// decoded returns a *DecodeError.
func (r *Resizer) Resize(data []byte, mime string, maxWidth, maxHeight int) (image.Image, error) {
	if !mediatypes.IsDecodable(mime) {
		return nil, ErrNotAnImage
	}

	start := time.Now()
	src, err := decode(bytes.NewReader(data), mime)
	if err != nil {
		return nil, &DecodeError{MimeType: mime, Detected: sniff(data), Err: err}
	}
	observePhase("decode", start)

	start = time.Now()
	out := r.ResizeImage(src, maxWidth, maxHeight)
	observePhase("resize", start)

	return out, nil
}

// ResizeFile reads the original at path and resizes it like Resize.
func (r *Resizer) ResizeFile(path, mime string, maxWidth, maxHeight int) (image.Image, error) {
	if !mediatypes.IsDecodable(mime) {
		return nil, ErrNotAnImage
	}

	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("read original %s: %w", path, err)
	}

	img, err := r.Resize(data, mime, maxWidth, maxHeight)
	if decodeErr, ok := err.(*DecodeError); ok {
		decodeErr.Path = path
	}
	return img, err
}

// ResizeImage scales an already decoded image to fit the bounding box.
// Images inside the box are returned unchanged.
func (r *Resizer) ResizeImage(src image.Image, maxWidth, maxHeight int) image.Image {
	b := src.Bounds()
	width, height := FitDimensions(b.Dx(), b.Dy(), maxWidth, maxHeight)
	if width == b.Dx() && height == b.Dy() {
		return src
	}
	return r.resampler.Resample(src, width, height)
}

// decode picks the decoder by declared MIME type, not by sniffing, so a
// mislabeled file is reported instead of silently accepted.
func decode(r io.Reader, mime string) (image.Image, error) {
	switch mime {
	case mediatypes.MimeGIF:
		return gif.Decode(r)
	case mediatypes.MimeJPEG:
		return jpeg.Decode(r)
	case mediatypes.MimePNG:
		return png.Decode(r)
	default:
		return nil, ErrNotAnImage
	}
}

func observePhase(phase string, start time.Time) {
	metrics.ThumbnailGenerationDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}
