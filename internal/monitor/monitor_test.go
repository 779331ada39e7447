package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"lanwatch/internal/domain"
	"lanwatch/internal/store"
)

type tablePinger struct {
	mu sync.Mutex
	up map[string]bool
}

func (p *tablePinger) Ping(ctx context.Context, address string) (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.up[address] {
		return 3 * time.Millisecond, true
	}
	return 0, false
}

func (p *tablePinger) set(address string, up bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.up[address] = up
}

type eventRecorder struct {
	mu     sync.Mutex
	events []StatusChange
}

func (e *eventRecorder) Broadcast(kind string, data any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if kind != "status-change" {
		return
	}
	if change, ok := data.(StatusChange); ok {
		e.events = append(e.events, change)
	}
}

func (e *eventRecorder) list() []StatusChange {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]StatusChange, len(e.events))
	copy(out, e.events)
	return out
}

func seed(st *store.Store, address string, status domain.DeviceStatus, lastSeen time.Time) {
	st.Load([]domain.Device{{
		Address:  address,
		MAC:      domain.UnknownMAC,
		Name:     address,
		Class:    domain.ClassDevice,
		Status:   status,
		LastSeen: lastSeen,
	}})
}

func TestCycle(t *testing.T) {
	t.Run("unreachable device goes offline keeping last seen", func(t *testing.T) {
		st := store.New()
		lastSeen := time.Now().Add(-time.Minute)
		seed(st, "192.168.1.50", domain.StatusOnline, lastSeen)

		pinger := &tablePinger{up: map[string]bool{}}
		events := &eventRecorder{}
		r := New(st, pinger, events, Config{})

		r.cycle(context.Background())

		dev, _ := st.Get("192.168.1.50")
		if dev.Status != domain.StatusOffline {
			t.Errorf("expected offline, got %s", dev.Status)
		}
		if !dev.LastSeen.Equal(lastSeen) {
			t.Errorf("expected LastSeen untouched at %v, got %v", lastSeen, dev.LastSeen)
		}

		got := events.list()
		if len(got) != 1 {
			t.Fatalf("expected exactly one status-change event, got %d", len(got))
		}
		if got[0].Address != "192.168.1.50" || got[0].Status != domain.StatusOffline {
			t.Errorf("unexpected event %+v", got[0])
		}
		if !got[0].LastSeen.Equal(lastSeen) {
			t.Errorf("event must carry the prior LastSeen, got %v", got[0].LastSeen)
		}
	})

	t.Run("recovered device goes online and advances last seen", func(t *testing.T) {
		st := store.New()
		lastSeen := time.Now().Add(-time.Hour)
		seed(st, "192.168.1.50", domain.StatusOffline, lastSeen)

		pinger := &tablePinger{up: map[string]bool{"192.168.1.50": true}}
		events := &eventRecorder{}
		r := New(st, pinger, events, Config{})

		before := time.Now()
		r.cycle(context.Background())

		dev, _ := st.Get("192.168.1.50")
		if dev.Status != domain.StatusOnline {
			t.Errorf("expected online, got %s", dev.Status)
		}
		if dev.LastSeen.Before(before) {
			t.Errorf("expected LastSeen advanced past %v, got %v", before, dev.LastSeen)
		}

		if got := events.list(); len(got) != 1 {
			t.Fatalf("expected exactly one status-change event, got %d", len(got))
		}
	})

	t.Run("no event without a transition", func(t *testing.T) {
		st := store.New()
		seed(st, "192.168.1.50", domain.StatusOnline, time.Now())

		pinger := &tablePinger{up: map[string]bool{"192.168.1.50": true}}
		events := &eventRecorder{}
		r := New(st, pinger, events, Config{})

		r.cycle(context.Background())

		if got := events.list(); len(got) != 0 {
			t.Fatalf("expected no events for steady state, got %v", got)
		}
	})

	t.Run("one failing address does not abort the cycle", func(t *testing.T) {
		st := store.New()
		seed(st, "192.168.1.10", domain.StatusOnline, time.Now())
		seed(st, "192.168.1.20", domain.StatusOnline, time.Now())
		seed(st, "192.168.1.30", domain.StatusOnline, time.Now())

		pinger := &tablePinger{up: map[string]bool{
			"192.168.1.10": true,
			"192.168.1.30": true,
		}}
		r := New(st, pinger, &eventRecorder{}, Config{MaxConcurrent: 1})

		r.cycle(context.Background())

		for addr, want := range map[string]domain.DeviceStatus{
			"192.168.1.10": domain.StatusOnline,
			"192.168.1.20": domain.StatusOffline,
			"192.168.1.30": domain.StatusOnline,
		} {
			dev, ok := st.Get(addr)
			if !ok {
				t.Fatalf("record %s missing", addr)
			}
			if dev.Status != want {
				t.Errorf("%s: expected %s, got %s", addr, want, dev.Status)
			}
		}
	})
}

func TestStartStop(t *testing.T) {
	st := store.New()
	seed(st, "192.168.1.50", domain.StatusOnline, time.Now())

	pinger := &tablePinger{up: map[string]bool{"192.168.1.50": true}}
	r := New(st, pinger, nil, Config{Interval: 10 * time.Millisecond})

	r.Start()
	time.Sleep(30 * time.Millisecond)
	r.Stop()

	// idempotent
	r.Stop()
}
