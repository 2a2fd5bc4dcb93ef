package collector

import (
	"sync"
	"time"

	"codeberg.org/mutker/scadactl/internal/errors"
)

// Ring is a fixed-capacity, insertion-ordered snapshot buffer. One writer
// (the collection loop) appends while arbitrary readers query; every
// operation copies under the lock so readers never observe a partial
// append or eviction.
type Ring struct {
	mu    sync.Mutex
	data  []*Snapshot
	head  int
	count int
}

func NewRing(capacity int) (*Ring, error) {
	if capacity <= 0 {
		return nil, errors.New().WithMessage(errors.ErrInvalidArgument, "ring capacity must be > 0")
	}

	return &Ring{data: make([]*Snapshot, capacity)}, nil
}

// Append inserts a snapshot, evicting the oldest entry when full.
func (r *Ring) Append(s *Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[r.head] = s
	r.head = (r.head + 1) % len(r.data)
	if r.count < len(r.data) {
		r.count++
	}
}

// Latest returns the most recent snapshot, or nil when empty.
func (r *Ring) Latest() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return nil
	}

	return r.data[(r.head-1+len(r.data))%len(r.data)]
}

// Size returns the number of retained snapshots.
func (r *Ring) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.count
}

// Capacity returns the maximum number of retained snapshots.
func (r *Ring) Capacity() int {
	return len(r.data)
}

// Clear drops all retained snapshots.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.data {
		r.data[i] = nil
	}
	r.head = 0
	r.count = 0
}

// Snapshots returns all retained snapshots, oldest first.
func (r *Ring) Snapshots() []*Snapshot {
	return r.Window(0, 0)
}

// Window returns retained snapshots oldest first, filtered to the last
// lastSeconds of data (when > 0) and then truncated to the last lastN
// entries (when > 0).
func (r *Ring) Window(lastN int, lastSeconds float64) []*Snapshot {
	r.mu.Lock()
	all := make([]*Snapshot, 0, r.count)
	start := (r.head - r.count + len(r.data)) % len(r.data)
	for i := 0; i < r.count; i++ {
		all = append(all, r.data[(start+i)%len(r.data)])
	}
	r.mu.Unlock()

	if lastSeconds > 0 {
		cutoff := time.Now().Add(-time.Duration(lastSeconds * float64(time.Second)))
		filtered := all[:0]
		for _, s := range all {
			if !s.Timestamp.Before(cutoff) {
				filtered = append(filtered, s)
			}
		}
		all = filtered
	}

	if lastN > 0 && len(all) > lastN {
		all = all[len(all)-lastN:]
	}

	return all
}
