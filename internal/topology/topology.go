package topology

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrNoNetwork means no usable IPv4 interface could be found.
	// Callers must treat this as fatal for any scan request.
	ErrNoNetwork = errors.New("no usable network interface found")

	// ErrUnsupportedPrefix means the local network is not a /24.
	// Range derivation only enumerates the last octet; anything else
	// would be silently wrong, so we refuse instead.
	ErrUnsupportedPrefix = errors.New("only /24 networks are supported")
)

// Info describes the local network and the derived sweep range
type Info struct {
	LocalIP      string `json:"local_ip"`
	Netmask      string `json:"netmask"`
	NetworkRange string `json:"network_range"`
}

// virtualPrefixes are interface names for container/bridge networks that
// should never be treated as the primary LAN interface
var virtualPrefixes = []string{"veth", "docker", "br-", "cni", "flannel"}

// Resolve finds the first non-loopback, up, IPv4 interface and derives the
// /24 sweep range from its address
func Resolve() (*Info, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if isVirtual(iface.Name) {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipnet.IP.To4()
			if ip4 == nil {
				continue
			}
			return FromIPNet(ip4, ipnet.Mask)
		}
	}

	return nil, ErrNoNetwork
}

// FromIPNet derives the sweep range for an address and mask
func FromIPNet(ip4 net.IP, mask net.IPMask) (*Info, error) {
	ones, bits := mask.Size()
	if ones != 24 || bits != 32 {
		return nil, fmt.Errorf("%w: got /%d", ErrUnsupportedPrefix, ones)
	}

	network := ip4.Mask(mask)
	return &Info{
		LocalIP:      ip4.String(),
		Netmask:      net.IP(mask).String(),
		NetworkRange: fmt.Sprintf("%s/%d", network, ones),
	}, nil
}

// Addresses enumerates the sweepable host addresses of the range, .1
// through .254
func (i *Info) Addresses() []string {
	base := strings.TrimSuffix(i.NetworkRange, "/24")
	base = base[:strings.LastIndex(base, ".")+1]

	addrs := make([]string, 0, 254)
	for octet := 1; octet <= 254; octet++ {
		addrs = append(addrs, fmt.Sprintf("%s%d", base, octet))
	}
	return addrs
}

// Contains reports whether an address falls inside the sweep range
func (i *Info) Contains(address string) bool {
	_, ipnet, err := net.ParseCIDR(i.NetworkRange)
	if err != nil {
		return false
	}
	ip := net.ParseIP(address)
	if ip == nil {
		return false
	}
	return ipnet.Contains(ip)
}

func isVirtual(name string) bool {
	for _, prefix := range virtualPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
