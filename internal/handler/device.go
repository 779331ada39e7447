package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"lanwatch/internal/domain"
	"lanwatch/internal/metrics"
	"lanwatch/internal/scan"
	"lanwatch/internal/store"
	"lanwatch/internal/topology"
)

const pingPackets = 3

// Sweeper triggers a full subnet sweep. Satisfied by *scan.Sweeper.
type Sweeper interface {
	Sweep(ctx context.Context) (*scan.Summary, error)
}

// Pinger checks reachability of one address. Satisfied by *probe.Prober.
type Pinger interface {
	Ping(ctx context.Context, address string) (time.Duration, bool)
}

// DeviceHandler handles the device API requests
type DeviceHandler struct {
	store   *store.Store
	sweeper Sweeper
	pinger  Pinger
	resolve func() (*topology.Info, error)
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(st *store.Store, sweeper Sweeper, pinger Pinger) *DeviceHandler {
	return &DeviceHandler{
		store:   st,
		sweeper: sweeper,
		pinger:  pinger,
		resolve: topology.Resolve,
	}
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// GetNetworkInfo returns the derived local network topology
func (h *DeviceHandler) GetNetworkInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.resolve()
	if err != nil {
		if errors.Is(err, topology.ErrNoNetwork) || errors.Is(err, topology.ErrUnsupportedPrefix) {
			h.writeError(w, "No usable network", err.Error(), http.StatusServiceUnavailable)
			return
		}
		log.Printf("Failed to resolve network: %v", err)
		h.writeError(w, "Failed to resolve network", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, info, http.StatusOK)
}

// TriggerScan runs a subnet sweep and returns the discovered devices
func (h *DeviceHandler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, scan.ErrSweepInProgress):
			h.writeError(w, "scan already in progress", "", http.StatusConflict)
		case errors.Is(err, topology.ErrNoNetwork), errors.Is(err, topology.ErrUnsupportedPrefix):
			h.writeError(w, "No usable network", err.Error(), http.StatusServiceUnavailable)
		default:
			log.Printf("Scan failed: %v", err)
			h.writeError(w, "Scan failed", err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, summary, http.StatusOK)
}

// ListDevices returns the full device snapshot sorted by address
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.store.List(), http.StatusOK)
}

// DeviceDetail is a device record joined with its utilization reading
type DeviceDetail struct {
	domain.Device
	Metrics metrics.DeviceMetrics `json:"metrics"`
}

// GetDevice returns a single device with its metrics reading
func (h *DeviceHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if net.ParseIP(address) == nil {
		h.writeError(w, "Invalid address", "Expected an IPv4 address", http.StatusBadRequest)
		return
	}

	dev, ok := h.store.Get(address)
	if !ok {
		h.writeError(w, "Device not found", address, http.StatusNotFound)
		return
	}

	h.writeJSON(w, DeviceDetail{
		Device:  dev,
		Metrics: metrics.Sample(address),
	}, http.StatusOK)
}

// PingResult reports an on-demand reachability check
type PingResult struct {
	Address         string  `json:"address"`
	Reachable       bool    `json:"reachable"`
	LatencyMs       float64 `json:"latency_ms"`
	PacketsSent     int     `json:"packets_sent"`
	PacketsReceived int     `json:"packets_received"`
	LossPct         float64 `json:"loss_pct"`
}

// PingDevice probes an address directly, independent of the store
func (h *DeviceHandler) PingDevice(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if net.ParseIP(address) == nil {
		h.writeError(w, "Invalid address", "Expected an IPv4 address", http.StatusBadRequest)
		return
	}

	var received int
	var total time.Duration
	for i := 0; i < pingPackets; i++ {
		latency, up := h.pinger.Ping(r.Context(), address)
		if up {
			received++
			total += latency
		}
	}

	result := PingResult{
		Address:         address,
		Reachable:       received > 0,
		PacketsSent:     pingPackets,
		PacketsReceived: received,
		LossPct:         float64(pingPackets-received) / pingPackets * 100,
	}
	if received > 0 {
		result.LatencyMs = float64(total.Microseconds()) / float64(received) / 1000
	}

	h.writeJSON(w, result, http.StatusOK)
}

func (h *DeviceHandler) writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *DeviceHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
