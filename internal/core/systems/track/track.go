// Package track holds the occupancy grid a world's bodies move over.
//
// Cells are indexed [row][col] with row = floor(y / granularity) and
// col = floor(x / granularity). Anything that does not resolve to a cell
// inside the grid is treated as occupied.
package track

import (
	"errors"
	"fmt"
	"math"

	"github.com/zeusync/trackpilot/internal/core/systems/physics"
)

var ErrTrackFormat = errors.New("malformed track")

// Track is an immutable occupancy grid.
type Track struct {
	cells       [][]uint8
	rows, cols  int
	granularity float64
}

var _ physics.Environment = (*Track)(nil)

// New validates the grid and copies it. Every row must have the same,
// non-zero length and the granularity must be finite and positive.
func New(cells [][]uint8, granularity float64) (*Track, error) {
	if !(granularity > 0) || math.IsInf(granularity, 1) {
		return nil, fmt.Errorf("%w: granularity %v must be positive", ErrTrackFormat, granularity)
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("%w: grid has no rows", ErrTrackFormat)
	}
	cols := len(cells[0])
	if cols == 0 {
		return nil, fmt.Errorf("%w: grid has no columns", ErrTrackFormat)
	}

	grid := make([][]uint8, len(cells))
	for i, row := range cells {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrTrackFormat, i, len(row), cols)
		}
		grid[i] = append([]uint8(nil), row...)
	}

	return &Track{cells: grid, rows: len(grid), cols: cols, granularity: granularity}, nil
}

// MustNew is New for fixtures known to be well formed.
func MustNew(cells [][]uint8, granularity float64) *Track {
	t, err := New(cells, granularity)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Track) Rows() int            { return t.rows }
func (t *Track) Cols() int            { return t.cols }
func (t *Track) Granularity() float64 { return t.granularity }

// Size returns the world-unit extent of the grid.
func (t *Track) Size() (width, height float64) {
	return float64(t.cols) * t.granularity, float64(t.rows) * t.granularity
}

// Cell maps a position to grid indices. ok is false, and the indices are
// -1, when the position falls outside the grid.
func (t *Track) Cell(p physics.Vector2D) (row, col int, ok bool) {
	fr := math.Floor(p.Y / t.granularity)
	fc := math.Floor(p.X / t.granularity)
	// Comparing as floats keeps NaN and huge coordinates out of the int conversion.
	if !(fr >= 0 && fr < float64(t.rows) && fc >= 0 && fc < float64(t.cols)) {
		return -1, -1, false
	}
	return int(fr), int(fc), true
}

// At returns the cell value, or 1 for indices outside the grid.
func (t *Track) At(row, col int) uint8 {
	if row < 0 || row >= t.rows || col < 0 || col >= t.cols {
		return 1
	}
	return t.cells[row][col]
}

// Occupied reports whether the position falls on a non-zero cell or off the grid.
func (t *Track) Occupied(p physics.Vector2D) bool {
	row, col, ok := t.Cell(p)
	if !ok {
		return true
	}
	return t.cells[row][col] != 0
}

// Cells returns a copy of the grid.
func (t *Track) Cells() [][]uint8 {
	out := make([][]uint8, t.rows)
	for i, row := range t.cells {
		out[i] = append([]uint8(nil), row...)
	}
	return out
}
