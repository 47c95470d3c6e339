package media

import (
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// EncodeJPEG writes img as a JPEG at the given quality (1-100). The same
// routine feeds HTTP responses and cache files; only the writer differs.
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrEncode)
	}
	if err := imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return nil
}
