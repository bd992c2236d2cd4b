// Package catalog holds the survey fields and answers visibility queries
// against an observing site.
package catalog

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/kilianp07/skyplan/core/astro"
	"github.com/kilianp07/skyplan/core/model"
	"github.com/kilianp07/skyplan/core/registry"
)

// Options configures catalog loading.
type Options struct {
	Site *astro.Site
	// AllowRevisits keys fields by (ID, Tiling). When false the ID alone
	// must be unique.
	AllowRevisits bool
}

// Candidate is a field visible at a given instant.
type Candidate struct {
	Field      model.Field
	Visibility astro.Visibility
}

// Catalog is the validated set of survey fields.
type Catalog struct {
	mu        sync.RWMutex
	site      *astro.Site
	revisits  bool
	fields    []model.Field
	index     map[model.FieldKey]int
	completed map[model.FieldKey]time.Time
}

// Load validates rows and builds a catalog. The first invalid row aborts the
// load with a *model.MalformedCatalogError.
func Load(rows []model.Field, opts Options) (*Catalog, error) {
	site := opts.Site
	if site == nil {
		site = astro.CTIO()
	}
	c := &Catalog{
		site:      site,
		revisits:  opts.AllowRevisits,
		fields:    make([]model.Field, 0, len(rows)),
		index:     make(map[model.FieldKey]int, len(rows)),
		completed: make(map[model.FieldKey]time.Time),
	}
	for i, f := range rows {
		if reason := validate(f); reason != "" {
			return nil, &model.MalformedCatalogError{Row: i + 1, ID: f.ID, Reason: reason}
		}
		k := c.norm(f.Key())
		if prev, ok := c.index[k]; ok {
			return nil, &model.MalformedCatalogError{Row: i + 1, ID: f.ID, Reason: fmt.Sprintf("duplicate of row %d", prev+1)}
		}
		c.index[k] = len(c.fields)
		c.fields = append(c.fields, f)
	}
	return c, nil
}

func validate(f model.Field) string {
	switch {
	case f.ID == "":
		return "empty id"
	case math.IsNaN(f.RA) || f.RA < 0 || f.RA >= 360:
		return fmt.Sprintf("ra %v outside [0,360)", f.RA)
	case math.IsNaN(f.Dec) || f.Dec < -90 || f.Dec > 90:
		return fmt.Sprintf("dec %v outside [-90,90]", f.Dec)
	case f.Filter == "":
		return "empty filter"
	case math.IsNaN(f.Priority) || f.Priority < 0:
		return fmt.Sprintf("negative priority %v", f.Priority)
	case f.Exposure <= 0:
		return fmt.Sprintf("non-positive exposure %v", f.Exposure)
	case f.Tiling < 0:
		return fmt.Sprintf("negative tiling %d", f.Tiling)
	}
	return ""
}

func (c *Catalog) norm(k model.FieldKey) model.FieldKey {
	if !c.revisits {
		k.Tiling = 0
	}
	return k
}

// Site returns the site used for visibility.
func (c *Catalog) Site() *astro.Site { return c.site }

// Len returns the number of fields.
func (c *Catalog) Len() int { return len(c.fields) }

// Fields returns a copy of the fields in catalog order.
func (c *Catalog) Fields() []model.Field {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// Get returns the field with the given key.
func (c *Catalog) Get(k model.FieldKey) (model.Field, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[c.norm(k)]
	if !ok {
		return model.Field{}, false
	}
	return c.fields[i], true
}

// MinExposure returns the shortest exposure among incomplete fields.
func (c *Catalog) MinExposure() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var min time.Duration
	for _, f := range c.fields {
		if f.Completed() {
			continue
		}
		if min == 0 || f.Exposure < min {
			min = f.Exposure
		}
	}
	return min
}

// VisibleCandidates returns fields not yet observed whose position at t
// satisfies the site constraints, in catalog order.
func (c *Catalog) VisibleCandidates(t time.Time, done registry.Membership) []Candidate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Candidate
	for _, f := range c.fields {
		if f.Completed() || (done != nil && done.Has(f.Key())) {
			continue
		}
		v := c.site.Visibility(t, f.RA, f.Dec)
		if !v.OK {
			continue
		}
		out = append(out, Candidate{Field: f, Visibility: v})
	}
	return out
}

// MarkComplete flags the field as completed. Repeated calls are no-ops.
// It returns false when the key is unknown.
func (c *Catalog) MarkComplete(k model.FieldKey, t time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	k = c.norm(k)
	i, ok := c.index[k]
	if !ok {
		return false
	}
	if c.fields[i].Completed() {
		return true
	}
	c.fields[i].Status = model.StatusCompleted
	c.completed[k] = t
	return true
}

// CompletedAt returns when the field was marked complete.
func (c *Catalog) CompletedAt(k model.FieldKey) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.completed[c.norm(k)]
	return t, ok
}

// Pending counts incomplete fields that can ever satisfy the site limits.
func (c *Catalog) Pending(done registry.Membership) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, f := range c.fields {
		if f.Completed() || (done != nil && done.Has(f.Key())) {
			continue
		}
		if c.site.Reachable(f.Dec) {
			n++
		}
	}
	return n
}

// PendingDuring counts incomplete fields visible at some instant covered by
// cov. A field that is reachable in principle but never above the limits
// while the remaining windows are open does not count.
func (c *Catalog) PendingDuring(cov *astro.Coverage, done registry.Membership) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reach := make(map[float64]float64)
	n := 0
	for _, f := range c.fields {
		if f.Completed() || (done != nil && done.Has(f.Key())) {
			continue
		}
		h, seen := reach[f.Dec]
		if !seen {
			ha, ok := c.site.MaxHourAngle(f.Dec)
			if !ok {
				ha = -1
			}
			reach[f.Dec], h = ha, ha
		}
		if h >= 0 && cov.Reaches(f.RA, h) {
			n++
		}
	}
	return n
}
