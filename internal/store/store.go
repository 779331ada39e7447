package store

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"lanwatch/internal/domain"
)

// Snapshotter persists device records as they change. Optional; the store
// works purely in memory without one.
type Snapshotter interface {
	SaveDevice(ctx context.Context, dev *domain.Device) error
}

// Store is the authoritative address -> device mapping. It is safe for
// concurrent writers (sweep merges and reconciler updates race by design);
// updates are atomic per record and last-writer-wins. Callers only ever see
// copies.
type Store struct {
	mu      sync.RWMutex
	devices map[string]*domain.Device
	snap    Snapshotter
}

// New creates an empty store
func New() *Store {
	return &Store{devices: make(map[string]*domain.Device)}
}

// SetSnapshotter enables write-through persistence
func (s *Store) SetSnapshotter(snap Snapshotter) {
	s.snap = snap
}

// Load seeds the store from persisted records. Existing entries are not
// overwritten and nothing is written back.
func (s *Store) Load(devices []domain.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dev := range devices {
		if _, ok := s.devices[dev.Address]; ok {
			continue
		}
		d := dev
		s.devices[d.Address] = &d
	}
}

// Upsert merges a successful probe result: it creates the record on first
// discovery or overwrites MAC, name, class, status, last-seen and response
// time on an existing one. The address never changes and unrelated records
// are untouched. Returns a copy and whether the record was created.
func (s *Store) Upsert(dev domain.Device) (domain.Device, bool) {
	s.mu.Lock()
	existing, ok := s.devices[dev.Address]
	if !ok {
		d := dev
		s.devices[d.Address] = &d
		existing = &d
	} else {
		existing.MAC = dev.MAC
		existing.Name = dev.Name
		existing.Class = dev.Class
		existing.Status = dev.Status
		existing.LastSeen = dev.LastSeen
		existing.ResponseTimeMs = dev.ResponseTimeMs
	}
	out := *existing
	s.mu.Unlock()

	s.persist(&out)
	return out, !ok
}

// Get returns a copy of one record
func (s *Store) Get(address string) (domain.Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dev, ok := s.devices[address]
	if !ok {
		return domain.Device{}, false
	}
	return *dev, true
}

// List returns copies of all records, sorted by address
func (s *Store) List() []domain.Device {
	s.mu.RLock()
	out := make([]domain.Device, 0, len(s.devices))
	for _, dev := range s.devices {
		out = append(out, *dev)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return domain.LessAddress(out[i].Address, out[j].Address)
	})
	return out
}

// Addresses returns all known addresses; the reconciler snapshots these at
// cycle start instead of iterating live state
func (s *Store) Addresses() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.devices))
	for addr := range s.devices {
		out = append(out, addr)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return domain.LessAddress(out[i], out[j]) })
	return out
}

// Len returns the number of known devices
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.devices)
}

// MarkOnline records a successful liveness re-check: status online,
// last-seen advanced to seenAt. Reports whether the status changed and
// returns a copy of the updated record.
func (s *Store) MarkOnline(address string, latency time.Duration, seenAt time.Time) (domain.Device, bool, bool) {
	s.mu.Lock()
	dev, ok := s.devices[address]
	if !ok {
		s.mu.Unlock()
		return domain.Device{}, false, false
	}
	changed := dev.Status != domain.StatusOnline
	dev.Status = domain.StatusOnline
	dev.LastSeen = seenAt
	dev.ResponseTimeMs = latency.Milliseconds()
	out := *dev
	s.mu.Unlock()

	s.persist(&out)
	return out, changed, true
}

// MarkOffline records a failed liveness re-check: status offline, last-seen
// deliberately untouched so it keeps the last confirmed-alive time.
func (s *Store) MarkOffline(address string) (domain.Device, bool, bool) {
	s.mu.Lock()
	dev, ok := s.devices[address]
	if !ok {
		s.mu.Unlock()
		return domain.Device{}, false, false
	}
	changed := dev.Status != domain.StatusOffline
	dev.Status = domain.StatusOffline
	out := *dev
	s.mu.Unlock()

	s.persist(&out)
	return out, changed, true
}

func (s *Store) persist(dev *domain.Device) {
	if s.snap == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.snap.SaveDevice(ctx, dev); err != nil {
		log.Printf("Failed to persist device %s: %v", dev.Address, err)
	}
}
