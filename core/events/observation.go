package events

import "github.com/kilianp07/skyplan/core/model"

// ObservationScheduled is published for each record appended to a plan.
type ObservationScheduled struct {
	Nite       string
	Window     model.ObservationWindow
	Record     model.Record
	Candidates int
}
