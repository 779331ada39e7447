// Package monitor runs the liveness reconciler: a background loop that
// re-probes every known device on a fixed interval, flips online/offline in
// the store, and emits a status-change event per transition. It shares only
// the store and the notifier with the rest of the system.
package monitor
