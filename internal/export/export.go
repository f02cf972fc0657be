// Package export writes a timeline model as JSON, YAML or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/marquee/internal/models"
	"github.com/ajitpratap0/marquee/internal/timeline"
)

// Format is an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ValidFormats is the set of all valid export formats.
var ValidFormats = []Format{FormatJSON, FormatYAML, FormatCSV}

// IsValid returns true if the format is recognized.
func (f Format) IsValid() bool {
	for _, v := range ValidFormats {
		if f == v {
			return true
		}
	}
	return false
}

// Document is the structured export of a model.
type Document struct {
	Generation  string                `json:"generation" yaml:"generation"`
	BuiltAt     time.Time             `json:"built_at" yaml:"built_at"`
	Stats       models.Stats          `json:"stats" yaml:"stats"`
	Items       []models.TimelineItem `json:"items" yaml:"items"`
	Diagnostics []models.Diagnostic   `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// NewDocument captures m for export.
func NewDocument(m *timeline.Model) Document {
	return Document{
		Generation:  m.Generation,
		BuiltAt:     m.BuiltAt,
		Stats:       m.Stats(),
		Items:       m.Items(),
		Diagnostics: m.Diagnostics(),
	}
}

// csvHeader is the column order of CSV exports, one row per production.
var csvHeader = []string{"id", "title", "kind", "lane", "opening", "closing", "people", "label"}

// Write encodes m to w in the given format.
func Write(w io.Writer, m *timeline.Model, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(NewDocument(m)); err != nil {
			return fmt.Errorf("export: encoding JSON: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(m)); err != nil {
			return fmt.Errorf("export: encoding YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("export: closing YAML encoder: %w", err)
		}
	case FormatCSV:
		return writeCSV(w, m)
	default:
		return fmt.Errorf("export: unsupported format %q (use json, yaml or csv)", format)
	}
	return nil
}

func writeCSV(w io.Writer, m *timeline.Model) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("export: writing CSV header: %w", err)
	}
	for _, p := range m.Productions() {
		names := make([]string, 0, len(p.People))
		for _, pa := range p.People {
			names = append(names, pa.Name)
		}
		closing := ""
		switch {
		case p.Closing.IsKnown():
			closing = p.Closing.Time.Format(time.DateOnly)
		case p.Closing.IsOngoing():
			closing = "present"
		}
		row := []string{
			p.ID,
			p.Title,
			string(p.Kind),
			strconv.Itoa(p.Lane),
			p.Opening.Time.Format(time.DateOnly),
			closing,
			strings.Join(names, "; "),
			p.Label,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: writing CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flushing CSV: %w", err)
	}
	return nil
}
