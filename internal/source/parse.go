package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ajitpratap0/marquee/internal/models"
)

// Layout selects how columns are mapped to row fields.
type Layout string

const (
	// LayoutHeader maps columns by header name in any order.
	LayoutHeader Layout = "header"
	// LayoutFixed uses the sheet's fixed column order; the first record is
	// a header and is skipped.
	LayoutFixed Layout = "fixed"
)

// ValidLayouts is the set of all valid layouts.
var ValidLayouts = []Layout{LayoutHeader, LayoutFixed}

// IsValid returns true if the layout is recognized.
func (l Layout) IsValid() bool {
	for _, v := range ValidLayouts {
		if l == v {
			return true
		}
	}
	return false
}

type field int

const (
	fieldLastName field = iota
	fieldFirstName
	fieldTitle
	fieldRevival
	fieldOpening
	fieldClosing
	fieldPerformances
	fieldPosition
	fieldUnused
	fieldPositionStart
	fieldPositionEnd
	fieldProfileURL
	fieldNotes
	fieldWorksWith
	fieldCount
)

// headerAliases lists the accepted header spellings per field, already
// whitespace-normalized and lower-cased.
var headerAliases = map[field][]string{
	fieldLastName:      {"last name", "last", "surname", "lastname"},
	fieldFirstName:     {"first name", "first", "given name", "firstname"},
	fieldTitle:         {"show", "title", "production", "production title", "show title"},
	fieldRevival:       {"revival", "revival?", "production type", "revival label"},
	fieldOpening:       {"opening date", "opening", "open date", "start date", "start", "opened"},
	fieldClosing:       {"closing date", "closing", "close date", "end date", "end", "closed"},
	fieldPerformances:  {"performances", "# of performances", "number of performances", "perfs", "performance count"},
	fieldPosition:      {"position", "role", "position title", "job"},
	fieldPositionStart: {"position start", "position start date", "start of position", "role start"},
	fieldPositionEnd:   {"position end", "position end date", "end of position", "role end"},
	fieldProfileURL:    {"ibdb", "ibdb link", "ibdb url", "profile", "profile url", "url", "link"},
	fieldNotes:         {"notes", "note", "comments"},
	fieldWorksWith:     {"works with", "worked with", "works with:"},
}

// Parse decodes CSV text into raw rows in source order.
func Parse(data []byte, layout Layout) ([]models.RawRow, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var columns [fieldCount]int
	switch layout {
	case LayoutFixed:
		for f := range fieldCount {
			columns[f] = int(f)
		}
	case LayoutHeader, "":
		columns, err = mapHeader(header)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported layout %q (use header or fixed)", layout)
	}

	var rows []models.RawRow
	for {
		record, readErr := r.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return rows, fmt.Errorf("reading CSV: %w", readErr)
		}
		if blank(record) {
			continue
		}
		line, _ := r.FieldPos(0)
		rows = append(rows, toRow(record, columns, line))
	}

	return rows, nil
}

// NormalizeHeader collapses whitespace (including line breaks inside quoted
// multi-line headers) and lower-cases a header cell.
func NormalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), " ")
}

func mapHeader(header []string) ([fieldCount]int, error) {
	var columns [fieldCount]int
	for f := range fieldCount {
		columns[f] = -1
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeHeader(h)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	for f, aliases := range headerAliases {
		for _, alias := range aliases {
			if i, ok := index[alias]; ok {
				columns[f] = i
				break
			}
		}
	}

	if columns[fieldTitle] < 0 {
		return columns, fmt.Errorf("title column not found in CSV header; available columns: %v", header)
	}
	if columns[fieldOpening] < 0 {
		return columns, fmt.Errorf("opening date column not found in CSV header; available columns: %v", header)
	}
	return columns, nil
}

func toRow(record []string, columns [fieldCount]int, line int) models.RawRow {
	get := func(f field) string {
		i := columns[f]
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	return models.RawRow{
		Line:          line,
		LastName:      get(fieldLastName),
		FirstName:     get(fieldFirstName),
		Title:         get(fieldTitle),
		Revival:       get(fieldRevival),
		Opening:       get(fieldOpening),
		Closing:       get(fieldClosing),
		Performances:  get(fieldPerformances),
		Position:      get(fieldPosition),
		PositionStart: get(fieldPositionStart),
		PositionEnd:   get(fieldPositionEnd),
		ProfileURL:    get(fieldProfileURL),
		Notes:         get(fieldNotes),
		WorksWith:     get(fieldWorksWith),
	}
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
