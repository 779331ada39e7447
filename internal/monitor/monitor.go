package monitor

import (
	"context"
	"log"
	"sync"
	"time"

	"lanwatch/internal/domain"
	"lanwatch/internal/store"
)

// Pinger re-checks reachability of one address. Satisfied by *probe.Prober.
type Pinger interface {
	Ping(ctx context.Context, address string) (time.Duration, bool)
}

// Notifier receives status-change events. Satisfied by *hub.Hub.
type Notifier interface {
	Broadcast(kind string, data any)
}

// StatusChange is the payload of a status-change event
type StatusChange struct {
	Address  string              `json:"address"`
	Status   domain.DeviceStatus `json:"status"`
	LastSeen time.Time           `json:"last_seen"`
}

// Config tunes the reconciler
type Config struct {
	// Interval between cycles
	Interval time.Duration
	// MaxConcurrent limits parallel re-checks within a cycle
	MaxConcurrent int
}

// Reconciler periodically re-probes every known device and reconciles its
// online/offline status in the store, emitting an event per transition.
type Reconciler struct {
	store    *store.Store
	pinger   Pinger
	notifier Notifier
	interval time.Duration
	workers  int

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a reconciler
func New(st *store.Store, pinger Pinger, notifier Notifier, cfg Config) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 16
	}
	return &Reconciler{
		store:    st,
		pinger:   pinger,
		notifier: notifier,
		interval: cfg.Interval,
		workers:  cfg.MaxConcurrent,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the reconciliation loop
func (r *Reconciler) Start() {
	go r.run()
}

// Stop terminates the loop and waits for it to finish
func (r *Reconciler) Stop() {
	select {
	case <-r.doneCh:
		return
	default:
	}
	close(r.stopCh)
	<-r.doneCh
}

func (r *Reconciler) run() {
	defer close(r.doneCh)

	log.Printf("Liveness reconciler started (interval=%s)", r.interval)

	// first cycle right away so persisted records get corrected promptly
	r.cycle(context.Background())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.cycle(context.Background())
		case <-r.stopCh:
			log.Printf("Liveness reconciler stopped")
			return
		}
	}
}

// cycle re-checks every device known at cycle start. The address list is a
// snapshot, so concurrent sweep merges neither block nor corrupt the
// iteration. A failed or erroring check on one address never aborts the
// rest.
func (r *Reconciler) cycle(ctx context.Context) {
	addrs := r.store.Addresses()
	if len(addrs) == 0 {
		return
	}

	jobs := make(chan string, len(addrs))

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for addr := range jobs {
				r.check(ctx, addr)
			}
		}()
	}

	for _, addr := range addrs {
		jobs <- addr
	}
	close(jobs)
	wg.Wait()
}

// check re-probes one address and updates its record. Success advances
// last-seen; failure flips the status but leaves last-seen at the prior
// confirmed-alive time.
func (r *Reconciler) check(ctx context.Context, address string) {
	latency, up := r.pinger.Ping(ctx, address)

	var (
		dev     domain.Device
		changed bool
		found   bool
	)
	if up {
		dev, changed, found = r.store.MarkOnline(address, latency, time.Now())
	} else {
		dev, changed, found = r.store.MarkOffline(address)
	}
	if !found || !changed {
		return
	}

	log.Printf("Device %s (%s) is now %s", dev.Address, dev.Name, dev.Status)
	if r.notifier != nil {
		r.notifier.Broadcast("status-change", StatusChange{
			Address:  dev.Address,
			Status:   dev.Status,
			LastSeen: dev.LastSeen,
		})
	}
}
