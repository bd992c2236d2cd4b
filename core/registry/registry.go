// Package registry holds the set of fields already observed. It is seeded
// from prior runs, appended to by the scheduler and persisted through a Store.
package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/skyplan/core/model"
)

// Entry records the completion of one field.
type Entry struct {
	Key        model.FieldKey `json:"key"`
	ObservedAt time.Time      `json:"observed_at"`
	RA         float64        `json:"ra,omitempty"`
	Dec        float64        `json:"dec,omitempty"`
}

// Membership answers whether a field has already been observed.
type Membership interface {
	Has(model.FieldKey) bool
}

// Store loads and persists registry entries.
type Store interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
	Close() error
}

// Registry is an append-only set of completed fields. A single writer is
// expected during a run; readers may use Snapshot concurrently.
type Registry struct {
	mu       sync.RWMutex
	revisits bool
	entries  []Entry
	index    map[model.FieldKey]int
}

// New returns an empty registry. With revisits enabled the tiling is part of
// the identity, so the same ID may be completed once per tiling.
func New(revisits bool) *Registry {
	return &Registry{revisits: revisits, index: make(map[model.FieldKey]int)}
}

func (r *Registry) norm(k model.FieldKey) model.FieldKey {
	if !r.revisits {
		k.Tiling = 0
	}
	return k
}

// Revisits reports whether tilings are tracked separately.
func (r *Registry) Revisits() bool { return r.revisits }

// Has reports whether the key was completed.
func (r *Registry) Has(k model.FieldKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[r.norm(k)]
	return ok
}

// Add appends the entry. It returns false and leaves the registry untouched
// when the key is already present.
func (r *Registry) Add(e Entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.norm(e.Key)
	if _, ok := r.index[k]; ok {
		return false
	}
	r.index[k] = len(r.entries)
	r.entries = append(r.entries, e)
	return true
}

// Seed adds entries in observation order and returns how many were new.
func (r *Registry) Seed(entries []Entry) int {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ObservedAt.Before(sorted[j].ObservedAt) })
	added := 0
	for _, e := range sorted {
		if r.Add(e) {
			added++
		}
	}
	return added
}

// Len returns the number of completed fields.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Latest returns the most recent observation.
func (r *Registry) Latest() (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest Entry
	found := false
	for _, e := range r.entries {
		if !found || e.ObservedAt.After(latest.ObservedAt) {
			latest, found = e, true
		}
	}
	return latest, found
}

// Entries returns a copy of the entries in insertion order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Snapshot returns an immutable view for external readers.
func (r *Registry) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := &Snapshot{revisits: r.revisits, entries: make([]Entry, len(r.entries)), index: make(map[model.FieldKey]struct{}, len(r.index))}
	copy(s.entries, r.entries)
	for k := range r.index {
		s.index[k] = struct{}{}
	}
	return s
}

// Snapshot is a read-only copy of a registry.
type Snapshot struct {
	revisits bool
	entries  []Entry
	index    map[model.FieldKey]struct{}
}

// Has reports whether the key was completed when the snapshot was taken.
func (s *Snapshot) Has(k model.FieldKey) bool {
	if !s.revisits {
		k.Tiling = 0
	}
	_, ok := s.index[k]
	return ok
}

// Len returns the number of entries.
func (s *Snapshot) Len() int { return len(s.entries) }

// Entries returns a copy of the entries.
func (s *Snapshot) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
