// Package middleware provides HTTP middleware for the gallery server.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by gallery mode
package middleware
