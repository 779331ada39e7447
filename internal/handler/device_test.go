package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lanwatch/internal/domain"
	"lanwatch/internal/scan"
	"lanwatch/internal/store"
	"lanwatch/internal/topology"
)

type fakeSweeper struct {
	summary *scan.Summary
	err     error
}

func (s *fakeSweeper) Sweep(ctx context.Context) (*scan.Summary, error) {
	return s.summary, s.err
}

type fakePinger struct {
	up      map[string]bool
	latency time.Duration
}

func (p *fakePinger) Ping(ctx context.Context, address string) (time.Duration, bool) {
	if p.up[address] {
		return p.latency, true
	}
	return 0, false
}

func newTestHandler(st *store.Store, sweeper Sweeper, pinger Pinger) *DeviceHandler {
	h := NewDeviceHandler(st, sweeper, pinger)
	h.resolve = func() (*topology.Info, error) {
		return &topology.Info{
			LocalIP:      "192.168.1.10",
			Netmask:      "255.255.255.0",
			NetworkRange: "192.168.1.0/24",
		}, nil
	}
	return h
}

func seedStore(t *testing.T, devices ...domain.Device) *store.Store {
	t.Helper()
	st := store.New()
	st.Load(devices)
	return st
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return out
}

func TestGetNetworkInfo(t *testing.T) {
	t.Run("returns derived topology", func(t *testing.T) {
		h := newTestHandler(store.New(), &fakeSweeper{}, &fakePinger{})

		rec := httptest.NewRecorder()
		h.GetNetworkInfo(rec, httptest.NewRequest(http.MethodGet, "/api/network-info", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		info := decodeBody[topology.Info](t, rec)
		if info.NetworkRange != "192.168.1.0/24" {
			t.Errorf("unexpected range %s", info.NetworkRange)
		}
	})

	t.Run("no usable network yields 503", func(t *testing.T) {
		h := newTestHandler(store.New(), &fakeSweeper{}, &fakePinger{})
		h.resolve = func() (*topology.Info, error) { return nil, topology.ErrNoNetwork }

		rec := httptest.NewRecorder()
		h.GetNetworkInfo(rec, httptest.NewRequest(http.MethodGet, "/api/network-info", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})

	t.Run("unsupported prefix yields 503", func(t *testing.T) {
		h := newTestHandler(store.New(), &fakeSweeper{}, &fakePinger{})
		h.resolve = func() (*topology.Info, error) { return nil, topology.ErrUnsupportedPrefix }

		rec := httptest.NewRecorder()
		h.GetNetworkInfo(rec, httptest.NewRequest(http.MethodGet, "/api/network-info", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}

func TestTriggerScan(t *testing.T) {
	t.Run("returns sweep summary", func(t *testing.T) {
		sweeper := &fakeSweeper{summary: &scan.Summary{
			Count: 1,
			Devices: []domain.Device{
				{Address: "192.168.1.1", Class: domain.ClassRouter, Status: domain.StatusOnline},
			},
		}}
		h := newTestHandler(store.New(), sweeper, &fakePinger{})

		rec := httptest.NewRecorder()
		h.TriggerScan(rec, httptest.NewRequest(http.MethodPost, "/api/scan", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		summary := decodeBody[scan.Summary](t, rec)
		if summary.Count != 1 || summary.Devices[0].Address != "192.168.1.1" {
			t.Errorf("unexpected summary %+v", summary)
		}
	})

	t.Run("conflicting sweep yields 409", func(t *testing.T) {
		h := newTestHandler(store.New(), &fakeSweeper{err: scan.ErrSweepInProgress}, &fakePinger{})

		rec := httptest.NewRecorder()
		h.TriggerScan(rec, httptest.NewRequest(http.MethodPost, "/api/scan", nil))

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		body := decodeBody[ErrorResponse](t, rec)
		if body.Error != "scan already in progress" {
			t.Errorf("unexpected error body %+v", body)
		}
	})

	t.Run("topology failure yields 503", func(t *testing.T) {
		h := newTestHandler(store.New(), &fakeSweeper{err: topology.ErrNoNetwork}, &fakePinger{})

		rec := httptest.NewRecorder()
		h.TriggerScan(rec, httptest.NewRequest(http.MethodPost, "/api/scan", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}

func TestListDevices(t *testing.T) {
	st := seedStore(t,
		domain.Device{Address: "192.168.1.100", Class: domain.ClassComputer, Status: domain.StatusOnline},
		domain.Device{Address: "192.168.1.2", Class: domain.ClassDevice, Status: domain.StatusOffline},
	)
	h := newTestHandler(st, &fakeSweeper{}, &fakePinger{})

	rec := httptest.NewRecorder()
	h.ListDevices(rec, httptest.NewRequest(http.MethodGet, "/api/devices", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	devices := decodeBody[[]domain.Device](t, rec)
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}
	if devices[0].Address != "192.168.1.2" || devices[1].Address != "192.168.1.100" {
		t.Errorf("expected numeric address order, got %s then %s", devices[0].Address, devices[1].Address)
	}
}

func newMux(h *DeviceHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/devices/{address}", h.GetDevice)
	mux.HandleFunc("POST /api/ping/{address}", h.PingDevice)
	return mux
}

func TestGetDevice(t *testing.T) {
	st := seedStore(t, domain.Device{
		Address: "192.168.1.50",
		MAC:     "AA:BB:CC:DD:EE:FF",
		Name:    "homeserver",
		Class:   domain.ClassServer,
		Status:  domain.StatusOnline,
	})
	mux := newMux(newTestHandler(st, &fakeSweeper{}, &fakePinger{}))

	t.Run("known device includes metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices/192.168.1.50", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		detail := decodeBody[DeviceDetail](t, rec)
		if detail.Name != "homeserver" {
			t.Errorf("unexpected record %+v", detail.Device)
		}
		if detail.Metrics.UptimeSeconds == 0 {
			t.Error("expected a metrics reading")
		}
	})

	t.Run("unknown device yields 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices/192.168.1.99", nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("malformed address yields 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices/not-an-ip", nil))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestPingDevice(t *testing.T) {
	t.Run("reachable host", func(t *testing.T) {
		pinger := &fakePinger{up: map[string]bool{"192.168.1.50": true}, latency: 4 * time.Millisecond}
		mux := newMux(newTestHandler(store.New(), &fakeSweeper{}, pinger))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ping/192.168.1.50", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := decodeBody[PingResult](t, rec)
		if !result.Reachable || result.PacketsSent != 3 || result.PacketsReceived != 3 {
			t.Errorf("unexpected result %+v", result)
		}
		if result.LossPct != 0 {
			t.Errorf("expected zero loss, got %v", result.LossPct)
		}
		if result.LatencyMs != 4 {
			t.Errorf("expected 4ms average, got %v", result.LatencyMs)
		}
	})

	t.Run("unreachable host", func(t *testing.T) {
		mux := newMux(newTestHandler(store.New(), &fakeSweeper{}, &fakePinger{}))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ping/192.168.1.99", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := decodeBody[PingResult](t, rec)
		if result.Reachable || result.PacketsReceived != 0 {
			t.Errorf("unexpected result %+v", result)
		}
		if result.LossPct != 100 {
			t.Errorf("expected total loss, got %v", result.LossPct)
		}
	})
}
