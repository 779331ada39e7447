package domain

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		address string
		host    string
		want    DeviceClass
	}{
		{"gateway address wins over name", "192.168.1.1", "office-printer", ClassRouter},
		{"gateway address with empty name", "10.0.0.1", "", ClassRouter},
		{"router by name", "192.168.1.254", "openwrt-router", ClassRouter},
		{"gateway by name", "192.168.1.254", "GATEWAY2", ClassRouter},
		{"switch by name", "192.168.1.200", "core-switch-01", ClassSwitch},
		{"printer by name", "192.168.1.77", "hp-printer.lan", ClassPrinter},
		{"phone by name", "192.168.1.120", "Pixel-Android", ClassPhone},
		{"iphone by name", "192.168.1.121", "Bobs-iPhone", ClassPhone},
		{"tv by name", "192.168.1.130", "living-room-tv", ClassSmartTV},
		{"chromecast by name", "192.168.1.131", "Chromecast-Ultra", ClassSmartTV},
		{"camera by name", "192.168.1.140", "front-door-camera", ClassCamera},
		{"server by name", "192.168.1.222", "homeserver", ClassServer},
		{"name hint case-insensitive", "192.168.1.60", "ROUTER", ClassRouter},
		{"low octet fallback", "192.168.1.50", "unnamed-host", ClassServer},
		{"mid octet fallback", "192.168.1.100", "192.168.1.100", ClassComputer},
		{"high octet fallback", "192.168.1.101", "", ClassDevice},
		{"top of range fallback", "192.168.1.254", "", ClassDevice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.address, tt.host)
			if got != tt.want {
				t.Errorf("Classify(%q, %q) = %s, want %s", tt.address, tt.host, got, tt.want)
			}
		})
	}
}

func TestClassifyOrderPreserved(t *testing.T) {
	// .1 must classify Router even when the name matches a later hint
	if got := Classify("192.168.1.1", "printer"); got != ClassRouter {
		t.Errorf("expected .1 to classify Router, got %s", got)
	}
	// a name hint must beat the octet bucket
	if got := Classify("192.168.1.40", "office-printer"); got != ClassPrinter {
		t.Errorf("expected name hint to beat octet bucket, got %s", got)
	}
}

func TestDeviceOnline(t *testing.T) {
	d := &Device{Status: StatusOnline}
	if !d.Online() {
		t.Error("expected Online() true for online device")
	}
	d.Status = StatusOffline
	if d.Online() {
		t.Error("expected Online() false for offline device")
	}
}
