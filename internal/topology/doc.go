// Package topology resolves the local network: which interface we sit on,
// its address and mask, and the address range a sweep should cover.
//
// Only /24 networks are supported. The range derivation enumerates the last
// octet (1-254) and nothing else, so any other prefix length is refused with
// ErrUnsupportedPrefix rather than producing a wrong range.
package topology
