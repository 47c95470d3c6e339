package media

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"simple-gallery/internal/mediatypes"
)

// Orientation is the value of the EXIF Orientation tag.
type Orientation int

// Orientation values acted upon. Mirrored variants (2, 4, 5, 7) are ignored.
const (
	OrientationNormal      Orientation = 1
	OrientationRotate180   Orientation = 3
	OrientationRotate90CW  Orientation = 6
	OrientationRotate90CCW Orientation = 8
)

// ReadOrientation reads the EXIF Orientation tag of an original.
//
// Only JPEG and TIFF are inspected; for any other MIME type it returns
// ErrExifNotSupported. A file without EXIF data or without the tag yields
// OrientationNormal and no error. Malformed EXIF data is returned as an
// error, which callers treat as "do not rotate".
func ReadOrientation(r io.Reader, mime string) (Orientation, error) {
	if !mediatypes.HasExif(mime) {
		return OrientationNormal, ErrExifNotSupported
	}

	x, err := exif.Decode(r)
	if x == nil {
		// A JPEG without an APP1 segment is scanned to the end.
		if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return OrientationNormal, nil
		}
		return OrientationNormal, fmt.Errorf("read exif: %w", err)
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return OrientationNormal, nil
	}

	v, err := tag.Int(0)
	if err != nil {
		return OrientationNormal, fmt.Errorf("orientation tag: %w", err)
	}
	return Orientation(v), nil
}

// ApplyOrientation rotates img so it displays upright for the given EXIF
// orientation. Values other than 3, 6 and 8 leave the image untouched.
func ApplyOrientation(img image.Image, o Orientation) image.Image {
	switch o {
	case OrientationRotate180:
		return imaging.Rotate180(img)
	case OrientationRotate90CW:
		// imaging rotates counter-clockwise
		return imaging.Rotate270(img)
	case OrientationRotate90CCW:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
