// Package probe answers one question per address: is it alive, and if so,
// who is it. Reachability comes from a Pinger (system ping plus TCP dial
// fallback by default, or an nmap ping scan when the binary is present);
// identity comes from the ARP cache, reverse DNS, and the classification
// heuristic.
//
// Probes are independent and share no mutable state, so any number can run
// concurrently. A miss is an absence, never an error.
package probe
