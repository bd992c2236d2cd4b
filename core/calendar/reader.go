package calendar

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kilianp07/skyplan/core/model"
)

// LegacyLayout is the UTC timestamp format of historical window tables.
const LegacyLayout = "2006/01/02 15:04:05"

// ReadCSV parses a window table with columns start and stop, plus optional
// nite and tag.
func ReadCSV(r io.Reader) ([]model.ObservationWindow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	header, err := cr.Read()
	if err != nil {
		return nil, &model.MalformedCalendarError{Reason: fmt.Sprintf("header: %v", err)}
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"start", "stop"} {
		if _, ok := cols[name]; !ok {
			return nil, &model.MalformedCalendarError{Reason: fmt.Sprintf("missing column %q", name)}
		}
	}
	opt := func(rec []string, name string) string {
		if i, ok := cols[name]; ok {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var out []model.ObservationWindow
	for i := 0; ; i++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &model.MalformedCalendarError{Index: i, Reason: err.Error()}
		}
		w := model.ObservationWindow{Nite: opt(rec, "nite"), Tag: opt(rec, "tag")}
		if w.Start, err = ParseTime(opt(rec, "start")); err != nil {
			return nil, &model.MalformedCalendarError{Index: i, Nite: w.Nite, Reason: err.Error()}
		}
		if w.Stop, err = ParseTime(opt(rec, "stop")); err != nil {
			return nil, &model.MalformedCalendarError{Index: i, Nite: w.Nite, Reason: err.Error()}
		}
		out = append(out, w)
	}
	return out, nil
}

// ParseTime accepts RFC 3339 or the legacy UTC layout.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(LegacyLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: expected RFC3339 or %q", s, LegacyLayout)
	}
	return t, nil
}
