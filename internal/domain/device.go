package domain

import "time"

// DeviceClass is the heuristic classification of a discovered device
type DeviceClass string

const (
	ClassRouter   DeviceClass = "Router"
	ClassSwitch   DeviceClass = "Switch"
	ClassPrinter  DeviceClass = "Printer"
	ClassPhone    DeviceClass = "Phone"
	ClassSmartTV  DeviceClass = "Smart TV"
	ClassCamera   DeviceClass = "Camera"
	ClassServer   DeviceClass = "Server"
	ClassComputer DeviceClass = "Computer"
	ClassDevice   DeviceClass = "Device"
)

// DeviceStatus represents the liveness of a device
type DeviceStatus string

const (
	StatusOnline  DeviceStatus = "online"
	StatusOffline DeviceStatus = "offline"
)

// UnknownMAC is recorded when hardware address resolution fails
const UnknownMAC = "unknown"

// Device is the persisted state for one discovered address
type Device struct {
	Address        string       `json:"address"`
	MAC            string       `json:"mac"`
	Name           string       `json:"name"`
	Class          DeviceClass  `json:"class"`
	Status         DeviceStatus `json:"status"`
	LastSeen       time.Time    `json:"last_seen"`
	ResponseTimeMs int64        `json:"response_time_ms"`
}

// Online reports whether the device was reachable on its last probe
func (d *Device) Online() bool {
	return d.Status == StatusOnline
}
