package model

import (
	"fmt"
	"time"
)

// FieldStatus tracks whether a field still needs to be observed.
type FieldStatus int

const (
	StatusPending FieldStatus = iota
	StatusCompleted
)

// String returns a human-readable representation of the status.
func (s FieldStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// FieldKey identifies a field within a catalog. Tiling distinguishes
// repeat visits of the same pointing.
type FieldKey struct {
	ID     string `json:"id"`
	Tiling int    `json:"tiling"`
}

// String renders the key as "<id>/<tiling>".
func (k FieldKey) String() string { return fmt.Sprintf("%s/%d", k.ID, k.Tiling) }

// Less orders keys by ID then tiling.
func (k FieldKey) Less(o FieldKey) bool {
	if k.ID != o.ID {
		return k.ID < o.ID
	}
	return k.Tiling < o.Tiling
}

// Field is a candidate survey pointing.
type Field struct {
	ID       string
	Hex      int           // sky cell shared by tilings, 0 when unknown
	RA       float64       // degrees, J2000
	Dec      float64       // degrees, J2000
	Filter   string        // photometric band
	Priority float64       // non-negative weight, higher is more urgent
	Exposure time.Duration // nominal exposure duration
	Tiling   int           // tiling/epoch tag
	Status   FieldStatus
}

// Key returns the catalog key of the field.
func (f Field) Key() FieldKey { return FieldKey{ID: f.ID, Tiling: f.Tiling} }

// Completed reports whether the field has been marked complete.
func (f Field) Completed() bool { return f.Status == StatusCompleted }
