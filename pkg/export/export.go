// Package export writes plan artifacts to disk.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kilianp07/skyplan/core/model"
)

// FileName returns the artifact name of one chunk: <prefix>_<nite>_<NN>.json.
func FileName(prefix, nite string, seq int) string {
	return fmt.Sprintf("%s_%s_%02d.json", prefix, nite, seq)
}

// WriteJSON writes the records of one chunk to w as an indented JSON array.
func WriteJSON(w io.Writer, records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteNight writes one JSON file per chunk of the night into dir and returns
// the written paths. Empty chunks still produce a file.
func WriteNight(dir, prefix string, plan model.NightPlan) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(plan.Chunks))
	for _, c := range plan.Chunks {
		path := filepath.Join(dir, FileName(prefix, plan.Nite, c.Seq))
		if err := writeFile(path, func(w io.Writer) error { return WriteJSON(w, c.Records) }); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

var csvHeader = []string{"nite", "chunk", "id", "tiling", "filter", "ra", "dec", "utc", "airmass", "slew_deg"}

// WriteCSV writes every record of the plan to w in CSV format.
func WriteCSV(w io.Writer, plan model.SurveyPlan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, n := range plan.Nights {
		for _, c := range n.Chunks {
			for _, r := range c.Records {
				rec := []string{
					n.Nite,
					strconv.Itoa(c.Seq),
					r.FieldID,
					strconv.Itoa(r.Tiling),
					r.Filter,
					strconv.FormatFloat(r.RA, 'f', 4, 64),
					strconv.FormatFloat(r.Dec, 'f', 4, 64),
					r.Time.UTC().Format(time.RFC3339),
					strconv.FormatFloat(r.Airmass, 'f', 3, 64),
					strconv.FormatFloat(r.SlewDeg, 'f', 3, 64),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the plan CSV to path.
func WriteCSVFile(path string, plan model.SurveyPlan) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return writeFile(path, func(w io.Writer) error { return WriteCSV(w, plan) })
}
