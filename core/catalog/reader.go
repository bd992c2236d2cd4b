package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/skyplan/core/model"
)

var requiredColumns = []string{"id", "ra", "dec", "filter", "priority", "exposure", "tiling"}

// ReadCSV parses a field table. Exposure is expressed in seconds; an
// optional hex column carries the sky cell.
func ReadCSV(r io.Reader) ([]model.Field, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	header, err := cr.Read()
	if err != nil {
		return nil, &model.MalformedCatalogError{Reason: fmt.Sprintf("header: %v", err)}
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, &model.MalformedCatalogError{Reason: fmt.Sprintf("missing column %q", name)}
		}
	}

	var fields []model.Field
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &model.MalformedCatalogError{Row: row, Reason: err.Error()}
		}
		f, err := parseRow(rec, cols)
		if err != nil {
			return nil, &model.MalformedCatalogError{Row: row, ID: f.ID, Reason: err.Error()}
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func parseRow(rec []string, cols map[string]int) (model.Field, error) {
	get := func(name string) string { return strings.TrimSpace(rec[cols[name]]) }
	f := model.Field{ID: get("id"), Filter: get("filter")}
	var err error
	if f.RA, err = strconv.ParseFloat(get("ra"), 64); err != nil {
		return f, fmt.Errorf("ra: %w", err)
	}
	if f.Dec, err = strconv.ParseFloat(get("dec"), 64); err != nil {
		return f, fmt.Errorf("dec: %w", err)
	}
	if f.Priority, err = strconv.ParseFloat(get("priority"), 64); err != nil {
		return f, fmt.Errorf("priority: %w", err)
	}
	secs, err := strconv.ParseFloat(get("exposure"), 64)
	if err != nil {
		return f, fmt.Errorf("exposure: %w", err)
	}
	f.Exposure = time.Duration(secs * float64(time.Second))
	if f.Tiling, err = strconv.Atoi(get("tiling")); err != nil {
		return f, fmt.Errorf("tiling: %w", err)
	}
	if i, ok := cols["hex"]; ok && strings.TrimSpace(rec[i]) != "" {
		if f.Hex, err = strconv.Atoi(strings.TrimSpace(rec[i])); err != nil {
			return f, fmt.Errorf("hex: %w", err)
		}
	}
	return f, nil
}
