// Package hub fans events out to websocket subscribers. Each subscriber gets
// a full device snapshot on connect, then scan-complete and status-change
// frames as they happen. Slow consumers are skipped rather than allowed to
// stall the loop.
package hub
