package views

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tgienger/mixreview/internal/comments"
)

func TestColumn(t *testing.T) {
	assert.Equal(t, 0, column(0, 10))
	assert.Equal(t, 9, column(1, 10))
	assert.Equal(t, 5, column(0.5, 11))
	assert.Equal(t, 0, column(-0.3, 10))
	assert.Equal(t, 9, column(1.7, 10))
	assert.Equal(t, 0, column(0.5, 1))
}

func TestMarkerRow(t *testing.T) {
	row := markerRow(11, []comments.Marker{
		{CommentID: 1, Fraction: 0, Solved: true},
		{CommentID: 2, Fraction: 0.5},
		{CommentID: 3, Fraction: 1, Solved: true},
	})
	assert.Equal(t, markerSolved, row[0])
	assert.Equal(t, markerOpen, row[5])
	assert.Equal(t, markerSolved, row[10])
	assert.Equal(t, ' ', row[3])
}

func TestMarkerRowOpenWinsSharedCell(t *testing.T) {
	open := comments.Marker{CommentID: 1, Fraction: 0.5}
	solved := comments.Marker{CommentID: 2, Fraction: 0.5, Solved: true}

	assert.Equal(t, markerOpen, markerRow(11, []comments.Marker{open, solved})[5])
	assert.Equal(t, markerOpen, markerRow(11, []comments.Marker{solved, open})[5])
}

func TestMarkerRowZeroWidth(t *testing.T) {
	assert.Empty(t, markerRow(0, []comments.Marker{{Fraction: 0.5}}))
}

func TestProgressCells(t *testing.T) {
	assert.Equal(t, 0, progressCells(10, 0, 20))
	assert.Equal(t, 0, progressCells(0, 100, 20))
	assert.Equal(t, 10, progressCells(50, 100, 20))
	assert.Equal(t, 20, progressCells(100, 100, 20))
	assert.Equal(t, 20, progressCells(150, 100, 20))
	assert.Equal(t, 0, progressCells(-5, 100, 20))
}

func TestAdjacentMarker(t *testing.T) {
	markers := []comments.Marker{
		{CommentID: 1, Seek: 10},
		{CommentID: 2, Seek: 30},
		{CommentID: 3, Seek: 20},
	}

	m, ok := adjacentMarker(markers, 0, true)
	assert.True(t, ok)
	assert.Equal(t, int64(1), m.CommentID)

	m, ok = adjacentMarker(markers, 10, true)
	assert.True(t, ok)
	assert.Equal(t, int64(3), m.CommentID, "a marker at the playhead is skipped")

	m, ok = adjacentMarker(markers, 25, false)
	assert.True(t, ok)
	assert.Equal(t, int64(3), m.CommentID)

	_, ok = adjacentMarker(markers, 30.2, true)
	assert.False(t, ok)

	_, ok = adjacentMarker(markers, 10.3, false)
	assert.False(t, ok)

	_, ok = adjacentMarker(nil, 0, true)
	assert.False(t, ok)
}
