package domain

import (
	"net"
	"strings"
)

// nameHints maps hostname substrings to device classes. Checked in order,
// first match wins, so more specific hints must come before generic ones.
var nameHints = []struct {
	substr string
	class  DeviceClass
}{
	{"router", ClassRouter},
	{"gateway", ClassRouter},
	{"switch", ClassSwitch},
	{"printer", ClassPrinter},
	{"phone", ClassPhone},
	{"android", ClassPhone},
	{"iphone", ClassPhone},
	{"tv", ClassSmartTV},
	{"roku", ClassSmartTV},
	{"chromecast", ClassSmartTV},
	{"camera", ClassCamera},
	{"server", ClassServer},
}

// Classify guesses the device class for an address and its resolved name.
//
// The heuristic is ordered and the order is load-bearing: .1 is always the
// router regardless of name, name hints beat the octet buckets, and the
// octet buckets are the fallback for unnamed hosts. Reordering changes
// observable classifications.
func Classify(address, name string) DeviceClass {
	octet := lastOctet(address)

	if octet == 1 {
		return ClassRouter
	}

	lower := strings.ToLower(name)
	for _, hint := range nameHints {
		if strings.Contains(lower, hint.substr) {
			return hint.class
		}
	}

	switch {
	case octet < 0:
		return ClassDevice
	case octet <= 50:
		return ClassServer
	case octet <= 100:
		return ClassComputer
	default:
		return ClassDevice
	}
}

// lastOctet returns the final octet of an IPv4 address, or -1 if the
// address does not parse
func lastOctet(address string) int {
	ip := net.ParseIP(address)
	if ip == nil {
		return -1
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return -1
	}
	return int(ip4[3])
}
