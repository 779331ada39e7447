// Package handler exposes the HTTP API: network topology, scan trigger,
// device snapshot and detail, on-demand ping, plus the shared middleware
// stack.
package handler
