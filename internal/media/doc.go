// Package media turns gallery originals into thumbnails.
//
// ThumbnailCache is the entry point. It looks up a JPEG thumbnail in a flat
// cache directory keyed by the original's base name and generates one on a
// miss: decode, fit into the bounding box (see FitDimensions), rotate per the
// EXIF orientation tag, encode as JPEG and write the result atomically.
//
// Errors fall into three groups, see Classify:
//   - ErrNotAnImage: the file is not a supported image; show nothing
//   - *DecodeError: the extension claims an image but the content is broken
//   - anything else: an I/O, encode or timeout failure
package media
