package telemetry

import (
	"sync"
	"time"
)

// Store is an append-only ordered sequence of samples. Insertion order
// is chronological because ingestion is serialized on a single poller;
// readers work on snapshots. Nothing is ever evicted, so the store
// grows for the life of the process (known limitation).
type Store struct {
	mu      sync.RWMutex
	samples []Sample
	version uint64
}

func NewStore() *Store {
	return &Store{}
}

// Append adds one sample. Single writer assumed.
func (s *Store) Append(sm Sample) {
	s.mu.Lock()
	s.samples = append(s.samples, sm)
	s.version++
	s.mu.Unlock()
}

// Snapshot returns a copy of the stored samples, safe to iterate while
// appends continue.
func (s *Store) Snapshot() []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Latest returns the most recent sample, if any.
func (s *Store) Latest() (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.samples) == 0 {
		return Sample{}, false
	}
	return s.samples[len(s.samples)-1], true
}

// Range returns all samples with Timestamp in [from, to].
func (s *Store) Range(from, to time.Time) []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Sample, 0, len(s.samples))
	for _, sm := range s.samples {
		if sm.Timestamp.Compare(from) >= 0 && sm.Timestamp.Compare(to) <= 0 {
			out = append(out, sm)
		}
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}

// Version is a monotonic append counter. It lets response caches key on
// store state so a cached aggregate can never outlive the data it was
// computed from.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
