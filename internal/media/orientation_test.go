package media

import (
	"bytes"
	"errors"
	"testing"

	"simple-gallery/internal/mediatypes"
)

func TestReadOrientation(t *testing.T) {
	plain := encodeJPEG(t, splitImage(40, 20))

	tests := []struct {
		name    string
		data    []byte
		mime    string
		want    Orientation
		wantErr error
	}{
		{"no exif", plain, mediatypes.MimeJPEG, OrientationNormal, nil},
		{"rotate 90 cw", withOrientation(t, plain, 6), mediatypes.MimeJPEG, OrientationRotate90CW, nil},
		{"rotate 180", withOrientation(t, plain, 3), mediatypes.MimeJPEG, OrientationRotate180, nil},
		{"rotate 90 ccw", withOrientation(t, plain, 8), mediatypes.MimeJPEG, OrientationRotate90CCW, nil},
		{"mirrored value passes through", withOrientation(t, plain, 2), mediatypes.MimeJPEG, Orientation(2), nil},
		{"png never has exif", encodePNG(t, splitImage(4, 4)), mediatypes.MimePNG, OrientationNormal, ErrExifNotSupported},
		{"gif never has exif", []byte("GIF89a"), mediatypes.MimeGIF, OrientationNormal, ErrExifNotSupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadOrientation(bytes.NewReader(tt.data), tt.mime)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ReadOrientation() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ReadOrientation() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestApplyOrientation(t *testing.T) {
	src := splitImage(100, 50)

	tests := []struct {
		name         string
		orientation  Orientation
		wantW, wantH int
		// expected colors at the top-left and bottom-right corners
		topLeft, bottomRight [3]uint8
	}{
		{"normal", OrientationNormal, 100, 50, [3]uint8{255, 0, 0}, [3]uint8{0, 0, 255}},
		{"rotate 180", OrientationRotate180, 100, 50, [3]uint8{0, 0, 255}, [3]uint8{255, 0, 0}},
		{"rotate 90 cw", OrientationRotate90CW, 50, 100, [3]uint8{255, 0, 0}, [3]uint8{0, 0, 255}},
		{"rotate 90 ccw", OrientationRotate90CCW, 50, 100, [3]uint8{0, 0, 255}, [3]uint8{255, 0, 0}},
		{"mirrored ignored", Orientation(5), 100, 50, [3]uint8{255, 0, 0}, [3]uint8{0, 0, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ApplyOrientation(src, tt.orientation)
			b := out.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Fatalf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}

			check := func(x, y int, want [3]uint8) {
				r, g, bl, _ := out.At(b.Min.X+x, b.Min.Y+y).RGBA()
				if uint8(r>>8) != want[0] || uint8(g>>8) != want[1] || uint8(bl>>8) != want[2] {
					t.Errorf("pixel (%d,%d) = (%d,%d,%d), want %v", x, y, r>>8, g>>8, bl>>8, want)
				}
			}
			check(0, 0, tt.topLeft)
			check(b.Dx()-1, b.Dy()-1, tt.bottomRight)
		})
	}
}
