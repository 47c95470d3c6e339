// Package mediatypes holds the gallery's supported-file table and the small
// MIME helpers shared by the thumbnail pipeline and the HTTP layer.
//
// The table maps MIME types to extensions, mirroring the files.supported
// configuration key:
//
//	table := mediatypes.DefaultTable()
//	table.MimeTypeOf("holiday.JPG")   // "image/jpeg"
//	table.MimeTypeOf("notes.txt")     // "application/octet-stream"
//	table.IsImageFile("holiday.jpg")  // true
//
// Extension matching is case-insensitive. The package has no dependencies
// beyond the standard library so every other package can import it.
package mediatypes
