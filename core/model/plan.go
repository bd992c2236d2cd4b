package model

import "time"

// Record is one scheduled exposure.
type Record struct {
	FieldID   string        `json:"id"`
	Tiling    int           `json:"tiling"`
	Filter    string        `json:"filter"`
	RA        float64       `json:"ra"`
	Dec       float64       `json:"dec"`
	Time      time.Time     `json:"utc"`
	Exposure  time.Duration `json:"exposure"`
	Airmass   float64       `json:"airmass"`
	Altitude  float64       `json:"altitude"`
	HourAngle float64       `json:"hour_angle"`
	SlewDeg   float64       `json:"slew_deg"`
	SlewTime  time.Duration `json:"slew_time"`
	Cost      float64       `json:"cost"`
}

// Key returns the field key of the record.
func (r Record) Key() FieldKey { return FieldKey{ID: r.FieldID, Tiling: r.Tiling} }

// End returns the time at which the exposure finishes.
func (r Record) End() time.Time { return r.Time.Add(r.Exposure) }

// Chunk is an ordered sequence of records produced for one window.
type Chunk struct {
	Seq     int               `json:"seq"`
	Window  ObservationWindow `json:"window"`
	Records []Record          `json:"records"`
}

// Empty reports whether the chunk holds no record.
func (c Chunk) Empty() bool { return len(c.Records) == 0 }

// NightPlan holds the chunks of one nite in chronological order.
type NightPlan struct {
	Nite   string  `json:"nite"`
	Chunks []Chunk `json:"chunks"`
}

// Observations counts the records of the night.
func (n NightPlan) Observations() int {
	total := 0
	for _, c := range n.Chunks {
		total += len(c.Records)
	}
	return total
}

// SurveyPlan maps nites to their chunks, ordered chronologically.
type SurveyPlan struct {
	Nights []NightPlan `json:"nights"`
	// Interrupted is set when an external stop ended the run early.
	Interrupted bool `json:"interrupted,omitempty"`
}

// Nite returns the plan of the given nite.
func (p SurveyPlan) Nite(id string) (NightPlan, bool) {
	for _, n := range p.Nights {
		if n.Nite == id {
			return n, true
		}
	}
	return NightPlan{}, false
}

// Records flattens every record of the plan in schedule order.
func (p SurveyPlan) Records() []Record {
	var out []Record
	for _, n := range p.Nights {
		for _, c := range n.Chunks {
			out = append(out, c.Records...)
		}
	}
	return out
}

// Empty reports whether the plan schedules nothing.
func (p SurveyPlan) Empty() bool { return len(p.Records()) == 0 }
