package model

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedCatalog is returned when the field list is structurally invalid.
	ErrMalformedCatalog = errors.New("malformed catalog")
	// ErrMalformedCalendar is returned when the window list is structurally invalid.
	ErrMalformedCalendar = errors.New("malformed calendar")
	// ErrSurveyExhausted signals that no visible, incomplete field remains.
	ErrSurveyExhausted = errors.New("survey exhausted")
)

// MalformedCatalogError describes the offending catalog row.
type MalformedCatalogError struct {
	Row    int
	ID     string
	Reason string
}

func (e *MalformedCatalogError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("malformed catalog: row %d (%s): %s", e.Row, e.ID, e.Reason)
	}
	return fmt.Sprintf("malformed catalog: row %d: %s", e.Row, e.Reason)
}

// Is makes errors.Is match ErrMalformedCatalog.
func (e *MalformedCatalogError) Is(target error) bool { return target == ErrMalformedCatalog }

// MalformedCalendarError describes the offending window.
type MalformedCalendarError struct {
	Index  int
	Nite   string
	Reason string
}

func (e *MalformedCalendarError) Error() string {
	return fmt.Sprintf("malformed calendar: window %d (nite %s): %s", e.Index, e.Nite, e.Reason)
}

// Is makes errors.Is match ErrMalformedCalendar.
func (e *MalformedCalendarError) Is(target error) bool { return target == ErrMalformedCalendar }

// ExhaustedError carries the nite at which no further field could be planned.
type ExhaustedError struct {
	Nite      string
	Completed int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("survey exhausted before nite %s (%d fields completed)", e.Nite, e.Completed)
}

// Is makes errors.Is match ErrSurveyExhausted.
func (e *ExhaustedError) Is(target error) bool { return target == ErrSurveyExhausted }
