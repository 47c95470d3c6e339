// Package handlers provides the gallery's HTTP request handlers.
//
// Gallery requests all target "/" and select an action with the m query
// parameter:
//   - m=1: JPEG thumbnail of the file named by f
//   - m=2: the original file named by f as a download
//
// Health, version and metrics endpoints are served alongside.
package handlers
