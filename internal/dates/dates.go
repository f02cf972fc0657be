// Package dates turns free-text date expressions from the production sheet
// into normalized dates.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ajitpratap0/marquee/internal/models"
)

var (
	parenthetical = regexp.MustCompile(`\([^)]*\)`)
	circaToken    = regexp.MustCompile(`(?i)\bcirca\b\.?`)
	monthToken    = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)`)
	yearToken     = regexp.MustCompile(`\b(\d{4})\b`)
	slashDate     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

var months = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

// Normalize parses text into a known date, the ongoing sentinel or the
// unknown sentinel. It never fails and is deterministic.
func Normalize(text string) models.NormalizedDate {
	s := clean(text)

	switch strings.ToLower(s) {
	case "present":
		return models.Ongoing(text)
	case "", "end of run", "unknown", "??":
		return models.Unknown(text)
	}

	if circaToken.MatchString(s) {
		s = strings.TrimSpace(circaToken.ReplaceAllString(s, ""))
	}

	if m := monthToken.FindStringSubmatch(s); m != nil {
		if y := yearToken.FindStringSubmatch(s); y != nil {
			year, _ := strconv.Atoi(y[1])
			return models.Known(year, months[strings.ToLower(m[1])], 1, text)
		}
	}

	if m := slashDate.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if validDay(year, month, day) {
			return models.Known(year, time.Month(month), day, text)
		}
	}

	return models.Unknown(text)
}

// IsEndOfRun reports whether text is a role-end marker meaning "until the
// production closes" ("EOR", "End of run").
func IsEndOfRun(text string) bool {
	switch strings.ToLower(clean(text)) {
	case "eor", "end of run", "end of the run":
		return true
	}
	return false
}

// clean strips parenthetical annotations and surrounding whitespace.
func clean(text string) string {
	return strings.TrimSpace(parenthetical.ReplaceAllString(text, ""))
}

func validDay(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Month() == time.Month(month) && t.Day() == day
}
