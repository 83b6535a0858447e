// Package handlers provides the HTTP endpoints served by the update daemon.
//
// It includes handlers for:
//   - Health, liveness and readiness checks
//   - Prometheus metrics
//   - Version and build information
package handlers
