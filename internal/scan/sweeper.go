package scan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"lanwatch/internal/domain"
	"lanwatch/internal/probe"
	"lanwatch/internal/store"
	"lanwatch/internal/topology"
)

// ErrSweepInProgress is returned when a sweep is requested while another is
// still running. Requests are rejected, never queued.
var ErrSweepInProgress = errors.New("scan already in progress")

// Prober probes a single address. Satisfied by *probe.Prober.
type Prober interface {
	Probe(ctx context.Context, address string) (*probe.Result, bool)
}

// Notifier receives the post-sweep broadcast. Satisfied by *hub.Hub.
type Notifier interface {
	Broadcast(kind string, data any)
}

// Summary is what a sweep returns to its caller
type Summary struct {
	Count   int             `json:"count"`
	Devices []domain.Device `json:"devices"`
}

// Config tunes a sweeper
type Config struct {
	// MaxConcurrent limits parallel probes
	MaxConcurrent int
	// Resolve supplies the network topology; defaults to topology.Resolve
	Resolve func() (*topology.Info, error)
}

// Sweeper fans a probe out over the whole derived address range and merges
// whatever answered into the store. Only one sweep runs at a time.
type Sweeper struct {
	store    *store.Store
	prober   Prober
	notifier Notifier
	resolve  func() (*topology.Info, error)
	workers  int

	mu       sync.Mutex
	sweeping bool
}

// New creates a sweeper
func New(st *store.Store, prober Prober, notifier Notifier, cfg Config) *Sweeper {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 64
	}
	if cfg.Resolve == nil {
		cfg.Resolve = topology.Resolve
	}
	return &Sweeper{
		store:    st,
		prober:   prober,
		notifier: notifier,
		resolve:  cfg.Resolve,
		workers:  cfg.MaxConcurrent,
	}
}

// InProgress reports whether a sweep is currently running
func (s *Sweeper) InProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweeping
}

// Sweep probes every address in the local /24 and merges the hosts that
// answered. Individual probe misses are expected and silently skipped; the
// sweep itself only fails on a concurrency conflict or when the topology
// cannot be resolved. The in-progress flag is cleared on every exit path.
func (s *Sweeper) Sweep(ctx context.Context) (*Summary, error) {
	s.mu.Lock()
	if s.sweeping {
		s.mu.Unlock()
		return nil, ErrSweepInProgress
	}
	s.sweeping = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sweeping = false
		s.mu.Unlock()
	}()

	info, err := s.resolve()
	if err != nil {
		return nil, fmt.Errorf("resolve network: %w", err)
	}

	addrs := info.Addresses()
	log.Printf("Starting sweep of %s (%d addresses)", info.NetworkRange, len(addrs))

	results := s.fanOut(ctx, addrs)

	devices := make([]domain.Device, 0, len(results))
	for _, res := range results {
		dev, created := s.store.Upsert(res.Device())
		if created {
			log.Printf("Discovered %s (%s, %s)", dev.Address, dev.Name, dev.Class)
		}
		devices = append(devices, dev)
	}
	sort.Slice(devices, func(i, j int) bool {
		return domain.LessAddress(devices[i].Address, devices[j].Address)
	})

	if s.notifier != nil {
		s.notifier.Broadcast("scan-complete", s.store.List())
	}

	log.Printf("Sweep of %s complete: %d hosts up", info.NetworkRange, len(devices))
	return &Summary{Count: len(devices), Devices: devices}, nil
}

// fanOut probes all addresses through a worker pool and waits for every
// probe to settle. A miss or failure on one address never cancels the rest.
func (s *Sweeper) fanOut(ctx context.Context, addrs []string) []*probe.Result {
	jobs := make(chan string, len(addrs))

	var mu sync.Mutex
	var results []*probe.Result

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for addr := range jobs {
				if res, ok := s.prober.Probe(ctx, addr); ok {
					mu.Lock()
					results = append(results, res)
					mu.Unlock()
				}
			}
		}()
	}

	for _, addr := range addrs {
		jobs <- addr
	}
	close(jobs)
	wg.Wait()

	return results
}
