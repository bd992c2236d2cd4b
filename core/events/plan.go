package events

import "github.com/kilianp07/skyplan/core/model"

// ChunkPlanned is published when a chunk is closed.
type ChunkPlanned struct {
	Nite  string
	Chunk model.Chunk
}

// NightPlanned is published once a nite has been fully planned. Interrupted
// is set when the run was cancelled during the nite.
type NightPlanned struct {
	Plan        model.NightPlan
	Interrupted bool
}

// SurveyExhausted is published when planning stops because no reachable
// field is left.
type SurveyExhausted struct {
	Nite      string
	Completed int
}
