package probe

import (
	"context"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
)

// NmapPinger checks reachability with an nmap ping scan (-sn). It needs the
// nmap binary on PATH; callers should gate on Available before selecting it.
type NmapPinger struct {
	Timeout time.Duration
}

// NewNmapPinger returns a pinger with the given per-probe timeout
func NewNmapPinger(timeout time.Duration) *NmapPinger {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &NmapPinger{Timeout: timeout}
}

// Ping runs a single-host ping scan and reports whether the host is up
func (p *NmapPinger) Ping(ctx context.Context, address string) (time.Duration, bool) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout+2*time.Second)
	defer cancel()

	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets(address),
		nmap.WithPingScan(),
		nmap.WithHostTimeout(p.Timeout),
	)
	if err != nil {
		return 0, false
	}

	start := time.Now()
	result, _, err := scanner.Run()
	if err != nil || result == nil {
		return 0, false
	}

	for _, host := range result.Hosts {
		if host.Status.State == "up" {
			return time.Since(start), true
		}
	}
	return 0, false
}

// Available reports whether the nmap binary can run at all
func Available(ctx context.Context) bool {
	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets("localhost"),
		nmap.WithListScan(),
	)
	if err != nil {
		return false
	}
	_, _, err = scanner.Run()
	return err == nil
}
