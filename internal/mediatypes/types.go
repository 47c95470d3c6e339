package mediatypes

import (
	"path/filepath"
	"sort"
	"strings"
)

// MIME types the thumbnail pipeline knows about.
const (
	MimeGIF  = "image/gif"
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeTIFF = "image/tiff"

	// DefaultMimeType is reported for files whose extension is not in the table.
	DefaultMimeType = "application/octet-stream"
)

// Table maps a MIME type to the file extensions (without the leading dot)
// that carry it. It is the gallery's notion of a "supported file".
type Table map[string][]string

// DefaultTable returns the supported file table used when configuration
// does not provide one.
func DefaultTable() Table {
	return Table{
		MimeGIF:  {"gif"},
		MimeJPEG: {"jpeg", "jpg"},
		MimePNG:  {"png"},
	}
}

// Normalize returns a copy of the table with lowercased, trimmed MIME types
// and extensions. Leading dots on extensions are dropped and empty entries
// removed.
func (t Table) Normalize() Table {
	out := make(Table, len(t))
	for mime, exts := range t {
		mime = strings.ToLower(strings.TrimSpace(mime))
		if mime == "" {
			continue
		}
		for _, ext := range exts {
			ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
			if ext != "" {
				out[mime] = append(out[mime], ext)
			}
		}
	}
	return out
}

// MimeTypeByExtension returns the MIME type registered for ext. The
// extension may carry a leading dot. Unknown extensions yield DefaultMimeType.
func (t Table) MimeTypeByExtension(ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		return DefaultMimeType
	}

	// Iterate in a stable order so an extension listed under two MIME types
	// always resolves the same way.
	mimes := make([]string, 0, len(t))
	for mime := range t {
		mimes = append(mimes, mime)
	}
	sort.Strings(mimes)

	for _, mime := range mimes {
		for _, e := range t[mime] {
			if strings.ToLower(strings.TrimSpace(e)) == ext {
				return strings.ToLower(strings.TrimSpace(mime))
			}
		}
	}
	return DefaultMimeType
}

// MimeTypeOf returns the MIME type of a file name or path based on its extension.
func (t Table) MimeTypeOf(path string) string {
	return t.MimeTypeByExtension(filepath.Ext(path))
}

// SupportedExtensions returns the distinct extensions in the table, sorted.
func (t Table) SupportedExtensions() []string {
	seen := make(map[string]bool)
	var result []string
	for _, exts := range t {
		for _, ext := range exts {
			if !seen[ext] {
				seen[ext] = true
				result = append(result, ext)
			}
		}
	}
	sort.Strings(result)
	return result
}

// IsImageFile reports whether name ends with one of the supported
// extensions. The special directory entries "." and ".." never match.
func (t Table) IsImageFile(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", ".", "..":
		return false
	}

	for _, ext := range t.SupportedExtensions() {
		if strings.HasSuffix(name, "."+ext) {
			return true
		}
	}
	return false
}

// IsDecodable reports whether the thumbnail pipeline can decode the given
// MIME type. Everything else is treated as "not an image".
func IsDecodable(mime string) bool {
	switch mime {
	case MimeGIF, MimeJPEG, MimePNG:
		return true
	}
	return false
}

// HasExif reports whether files of the given MIME type may carry EXIF
// metadata worth reading.
func HasExif(mime string) bool {
	return mime == MimeJPEG || mime == MimeTIFF
}
