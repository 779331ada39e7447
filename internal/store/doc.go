// Package store owns the device map. Sweep merges and reconciler updates
// both write here, possibly at the same time; the store serializes them and
// hands out copies so no caller ever holds a live record.
package store
