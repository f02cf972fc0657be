package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/marquee/internal/models"
	"github.com/ajitpratap0/marquee/internal/timeline"
)

var (
	laneLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	axisStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	kindStyles     = map[models.ProductionKind]lipgloss.Style{
		models.KindOriginal:         lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB")).Background(lipgloss.Color("#1D4ED8")),
		models.KindRevival:          lipgloss.NewStyle().Foreground(lipgloss.Color("#111827")).Background(lipgloss.Color("#F59E0B")),
		models.KindReturnEngagement: lipgloss.NewStyle().Foreground(lipgloss.Color("#111827")).Background(lipgloss.Color("#10B981")),
	}
)

func lanesCmd() *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "lanes",
		Short: "Draw the lane table in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			m, err := loadModel(cmd.Context(), logger)
			if err != nil {
				return fmt.Errorf("lanes: %w", err)
			}
			fmt.Println(renderLanes(m, width))
			return nil
		},
	}

	cmd.Flags().IntVarP(&width, "width", "w", 100, "chart width in columns")
	return cmd
}

// bar is one production placed on the character grid.
type bar struct {
	from, to int
	title    string
	kind     models.ProductionKind
}

// renderLanes draws one row per lane. Each column covers an equal slice of
// the span between the earliest opening and the latest effective end.
// Ongoing runs end at the model's build time, the instant lanes were
// assigned against.
func renderLanes(m *timeline.Model, width int) string {
	now := m.BuiltAt
	items := m.Items()
	if len(items) == 0 {
		return "No productions."
	}
	if width < 20 {
		width = 20
	}

	first, last := items[0].Start, now
	byLane := make(map[int][]models.TimelineItem)
	for _, it := range items {
		if it.Start.Before(first) {
			first = it.Start
		}
		if it.End != nil && it.End.After(last) {
			last = *it.End
		}
		byLane[it.Group] = append(byLane[it.Group], it)
	}
	span := last.Sub(first)
	if span <= 0 {
		span = time.Hour
	}
	col := func(t time.Time) int {
		c := int(float64(width) * float64(t.Sub(first)) / float64(span))
		return min(max(c, 0), width)
	}

	laneIDs := make([]int, 0, len(byLane))
	for l := range byLane {
		laneIDs = append(laneIDs, l)
	}
	sort.Ints(laneIDs)

	var b strings.Builder
	b.WriteString(axisStyle.Render(axis(first, last, width)))
	b.WriteString("\n")

	for _, l := range laneIDs {
		var bars []bar
		for _, it := range byLane[l] {
			end := now
			if it.End != nil {
				end = *it.End
			}
			from, to := col(it.Start), col(end)
			if to <= from {
				to = from + 1
			}
			bars = append(bars, bar{from: from, to: to, title: it.Content, kind: it.Kind})
		}
		sort.SliceStable(bars, func(i, j int) bool { return bars[i].from < bars[j].from })

		b.WriteString(laneLabelStyle.Render(fmt.Sprintf("lane %-3d", l)))
		b.WriteString(axisStyle.Render("│"))

		cursor := 0
		for _, br := range bars {
			from := max(br.from, cursor)
			if from >= br.to || from >= width+1 {
				continue
			}
			b.WriteString(strings.Repeat(" ", from-cursor))
			b.WriteString(kindStyle(br.kind).Render(fit(br.title, br.to-from)))
			cursor = br.to
		}
		b.WriteString("\n")
	}

	legend := make([]string, 0, len(kindStyles))
	for _, k := range []models.ProductionKind{models.KindOriginal, models.KindRevival, models.KindReturnEngagement} {
		legend = append(legend, kindStyle(k).Render(" "+string(k)+" "))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, legend...))
	return b.String()
}

func kindStyle(k models.ProductionKind) lipgloss.Style {
	if s, ok := kindStyles[k]; ok {
		return s
	}
	return kindStyles[models.KindOriginal]
}

// fit pads or clips title to exactly n runes.
func fit(title string, n int) string {
	r := []rune(title)
	if len(r) >= n {
		return string(r[:n])
	}
	return title + strings.Repeat(" ", n-len(r))
}

// axis labels the first and last year of the chart.
func axis(first, last time.Time, width int) string {
	left := fmt.Sprintf("%d", first.Year())
	right := fmt.Sprintf("%d", last.Year())
	gap := max(width-len(left)-len(right), 1)
	return strings.Repeat(" ", 9) + left + strings.Repeat("─", gap) + right
}
