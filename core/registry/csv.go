package registry

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/skyplan/core/model"
)

var csvHeader = []string{"id", "observed_utc", "tiling", "ra", "dec"}

// ReadCSV parses a completed-fields table. Only id and observed_utc are
// required; tiling, ra and dec are optional columns.
func ReadCSV(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range csvHeader[:2] {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("completed table: missing column %q", req)
		}
	}
	get := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	var out []Entry
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		e := Entry{Key: model.FieldKey{ID: get(rec, "id")}}
		if e.Key.ID == "" {
			return nil, fmt.Errorf("line %d: empty id", line)
		}
		if e.ObservedAt, err = time.Parse(time.RFC3339, get(rec, "observed_utc")); err != nil {
			return nil, fmt.Errorf("line %d: observed_utc: %w", line, err)
		}
		if s := get(rec, "tiling"); s != "" {
			if e.Key.Tiling, err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("line %d: tiling: %w", line, err)
			}
		}
		if s := get(rec, "ra"); s != "" {
			if e.RA, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("line %d: ra: %w", line, err)
			}
		}
		if s := get(rec, "dec"); s != "" {
			if e.Dec, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("line %d: dec: %w", line, err)
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// WriteCSV writes entries with a header row.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			e.Key.ID,
			e.ObservedAt.UTC().Format(time.RFC3339),
			strconv.Itoa(e.Key.Tiling),
			strconv.FormatFloat(e.RA, 'f', -1, 64),
			strconv.FormatFloat(e.Dec, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
