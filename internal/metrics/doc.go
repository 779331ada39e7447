// Package metrics synthesizes per-device utilization readings for the
// device detail endpoint.
package metrics
