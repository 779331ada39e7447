package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"regexp"
	"strconv"
	"syscall"
	"time"
)

// tcpProbePorts are dialed as a reachability fallback when ICMP is
// unavailable. A refused connection still proves the host is up.
var tcpProbePorts = []int{80, 443, 22, 53}

// icmpLatencyRe parses "time=X.XX ms" from ping output
var icmpLatencyRe = regexp.MustCompile(`time[=<](\d+\.?\d*)\s*ms`)

// DialPinger checks reachability with the system ping binary, falling back
// to TCP dials against common ports. ICMP raw sockets need privileges the
// process usually does not have, so both paths go through capabilities the
// OS grants to everyone.
type DialPinger struct {
	Timeout time.Duration
}

// NewDialPinger returns a pinger with the given per-probe timeout
func NewDialPinger(timeout time.Duration) *DialPinger {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &DialPinger{Timeout: timeout}
}

// Ping reports whether the address answers within the timeout
func (p *DialPinger) Ping(ctx context.Context, address string) (time.Duration, bool) {
	if latency, ok := p.icmpPing(ctx, address); ok {
		return latency, true
	}
	return p.tcpPing(ctx, address)
}

// icmpPing shells out to the ping binary with a single packet
func (p *DialPinger) icmpPing(ctx context.Context, address string) (time.Duration, bool) {
	timeoutSec := int(p.Timeout.Seconds())
	if timeoutSec < 1 {
		timeoutSec = 1
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout+time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ping", "-c", "1", "-W", strconv.Itoa(timeoutSec), address)
	output, err := cmd.Output()
	if err != nil {
		return 0, false
	}

	matches := icmpLatencyRe.FindSubmatch(output)
	if len(matches) >= 2 {
		if ms, err := strconv.ParseFloat(string(matches[1]), 64); err == nil {
			return time.Duration(ms * float64(time.Millisecond)), true
		}
	}

	// ping succeeded but latency did not parse
	return 0, true
}

// tcpPing dials common ports; a refused connection means the host is up
// even though the port is closed
func (p *DialPinger) tcpPing(ctx context.Context, address string) (time.Duration, bool) {
	dialer := net.Dialer{Timeout: p.Timeout}

	for _, port := range tcpProbePorts {
		addr := fmt.Sprintf("%s:%d", address, port)
		start := time.Now()

		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			conn.Close()
			return time.Since(start), true
		}
		if errors.Is(err, syscall.ECONNREFUSED) {
			return time.Since(start), true
		}
	}

	return 0, false
}
