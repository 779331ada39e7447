package probe

import (
	"context"
	"net"
	"strings"
	"time"

	"lanwatch/internal/domain"
)

// Result is the transient outcome of one successful probe. It exists only to
// be merged into the store.
type Result struct {
	Address string
	MAC     string
	Name    string
	Class   domain.DeviceClass
	Latency time.Duration
	SeenAt  time.Time
}

// Device converts the result into a device record
func (r *Result) Device() domain.Device {
	return domain.Device{
		Address:        r.Address,
		MAC:            r.MAC,
		Name:           r.Name,
		Class:          r.Class,
		Status:         domain.StatusOnline,
		LastSeen:       r.SeenAt,
		ResponseTimeMs: r.Latency.Milliseconds(),
	}
}

// Pinger determines reachability of a single address within a bounded
// timeout. Implementations must be safe for concurrent use.
type Pinger interface {
	Ping(ctx context.Context, address string) (time.Duration, bool)
}

// Prober combines a reachability check with identity resolution: hardware
// address from the ARP cache, name from reverse DNS, and the classification
// heuristic.
type Prober struct {
	pinger     Pinger
	dnsTimeout time.Duration

	// resolution seams, replaced in tests
	lookupMAC  func(address string) string
	lookupName func(ctx context.Context, address string, timeout time.Duration) string
}

// New creates a prober on top of the given pinger
func New(pinger Pinger) *Prober {
	return &Prober{
		pinger:     pinger,
		dnsTimeout: 500 * time.Millisecond,
		lookupMAC:  arpLookup,
		lookupName: reverseDNS,
	}
}

// Ping checks reachability only, without identity resolution. Used by the
// reconciler and the on-demand ping endpoint.
func (p *Prober) Ping(ctx context.Context, address string) (time.Duration, bool) {
	return p.pinger.Ping(ctx, address)
}

// Probe checks one address and, if it is alive, resolves its identity.
// An unreachable address returns (nil, false) - absence is the expected
// common case across a sweep, not an error. Resolution failures degrade to
// sentinels and never fail the probe.
func (p *Prober) Probe(ctx context.Context, address string) (*Result, bool) {
	latency, ok := p.pinger.Ping(ctx, address)
	if !ok {
		return nil, false
	}

	mac := p.lookupMAC(address)
	if mac == "" {
		mac = domain.UnknownMAC
	}

	name := p.lookupName(ctx, address, p.dnsTimeout)
	class := domain.Classify(address, name)
	if name == "" {
		name = address
	}

	return &Result{
		Address: address,
		MAC:     mac,
		Name:    name,
		Class:   class,
		Latency: latency,
		SeenAt:  time.Now(),
	}, true
}

// reverseDNS resolves a PTR name for the address with its own short timeout
func reverseDNS(ctx context.Context, address string, timeout time.Duration) string {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	names, err := net.DefaultResolver.LookupAddr(ctx, address)
	if err != nil || len(names) == 0 {
		return ""
	}
	return strings.TrimSuffix(names[0], ".")
}
