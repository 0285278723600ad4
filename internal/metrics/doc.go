// Package metrics exposes the bridge's Prometheus instruments and the
// optional /metrics endpoint.
package metrics
