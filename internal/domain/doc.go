// Package domain defines the core types shared across lanwatch: the device
// record, its status and classification, and the classification heuristic.
//
// Records are owned by the store; everything else works on copies.
package domain
