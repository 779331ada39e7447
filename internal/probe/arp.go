package probe

import (
	"bufio"
	"os"
	"strings"
)

const arpTablePath = "/proc/net/arp"

// arpLookup reads the kernel ARP cache for the hardware address of an IP.
// Returns "" when the entry is missing or incomplete; a probe that just
// reached the host will usually have populated the cache.
func arpLookup(address string) string {
	f, err := os.Open(arpTablePath)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	// header line
	scanner.Scan()

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] != address {
			continue
		}
		mac := fields[3]
		if mac == "00:00:00:00:00:00" {
			return ""
		}
		return strings.ToUpper(mac)
	}
	return ""
}
