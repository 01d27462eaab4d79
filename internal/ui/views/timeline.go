package views

import (
	"math"
	"strings"

	"github.com/tgienger/mixreview/internal/comments"
	"github.com/tgienger/mixreview/internal/ui/styles"
)

const (
	markerOpen   = '▼'
	markerSolved = '▽'
	barPlayed    = '━'
	barRemaining = '─'
)

// column maps a fraction in [0, 1] to one of width cells
func column(fraction float64, width int) int {
	if width <= 1 || math.IsNaN(fraction) {
		return 0
	}
	fraction = min(max(fraction, 0), 1)
	return int(math.Round(fraction * float64(width-1)))
}

// markerRow places the markers over a timeline of width cells. An open
// comment wins a cell shared with a solved one.
func markerRow(width int, markers []comments.Marker) []rune {
	row := []rune(strings.Repeat(" ", max(width, 0)))
	for _, m := range markers {
		if width <= 0 {
			break
		}
		col := column(m.Fraction, width)
		switch {
		case !m.Solved:
			row[col] = markerOpen
		case row[col] == ' ':
			row[col] = markerSolved
		}
	}
	return row
}

// progressCells is the number of played cells for a position
func progressCells(position, duration float64, width int) int {
	if duration <= 0 || width <= 0 {
		return 0
	}
	return min(max(int(position/duration*float64(width)), 0), width)
}

// renderTimeline draws the marker row above the progress bar
func renderTimeline(s *styles.Styles, width int, position, duration float64, markers []comments.Marker) string {
	if width <= 0 {
		return ""
	}
	var top strings.Builder
	for _, r := range markerRow(width, markers) {
		switch r {
		case markerOpen:
			top.WriteString(s.Marker.Render(string(r)))
		case markerSolved:
			top.WriteString(s.MarkerSolved.Render(string(r)))
		default:
			top.WriteRune(r)
		}
	}

	played := progressCells(position, duration, width)
	bar := s.WaveformProgress.Render(strings.Repeat(string(barPlayed), played)) +
		s.Waveform.Render(strings.Repeat(string(barRemaining), width-played))

	return top.String() + "\n" + bar
}

// adjacentMarker finds the closest marker strictly after (forward) or
// before position. Markers within half a second of position are skipped so
// repeated jumps make progress.
func adjacentMarker(markers []comments.Marker, position float64, forward bool) (comments.Marker, bool) {
	const slack = 0.5
	var (
		best  comments.Marker
		found bool
	)
	for _, m := range markers {
		if forward {
			if m.Seek > position+slack && (!found || m.Seek < best.Seek) {
				best, found = m, true
			}
		} else if m.Seek < position-slack && (!found || m.Seek > best.Seek) {
			best, found = m, true
		}
	}
	return best, found
}
