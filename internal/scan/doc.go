// Package scan coordinates a full subnet sweep: resolve the topology, fan a
// probe out per candidate address, wait for everything to settle, merge the
// hits into the store, and broadcast the new snapshot. A single in-progress
// flag rejects overlapping sweeps.
package scan
