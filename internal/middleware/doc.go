// Package middleware provides HTTP middleware for the update daemon's
// operational endpoints.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by route template
package middleware
