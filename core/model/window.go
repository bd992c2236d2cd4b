package model

import "time"

// ObservationWindow is a contiguous UTC interval during which observing is
// permitted on a given nite.
type ObservationWindow struct {
	Nite  string    `json:"nite"`
	Start time.Time `json:"start"`
	Stop  time.Time `json:"stop"`
	Tag   string    `json:"tag,omitempty"`
}

// Duration returns the length of the window.
func (w ObservationWindow) Duration() time.Duration { return w.Stop.Sub(w.Start) }

// Contains reports whether t lies in [Start, Stop].
func (w ObservationWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.Stop)
}

// Clip restricts the window to [start, stop]. The boolean is false when the
// intersection is empty. Zero bounds are ignored.
func (w ObservationWindow) Clip(start, stop time.Time) (ObservationWindow, bool) {
	out := w
	if !start.IsZero() && start.After(out.Start) {
		out.Start = start
	}
	if !stop.IsZero() && stop.Before(out.Stop) {
		out.Stop = stop
	}
	return out, out.Stop.After(out.Start)
}
