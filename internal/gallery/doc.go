// Package gallery resolves file names from requests to originals inside the
// gallery root and lists the images it holds.
package gallery
