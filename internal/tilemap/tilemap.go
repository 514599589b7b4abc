package tilemap

import (
	"errors"
	"fmt"
)

// Cell codes. Codes >= Tagged carry a point-of-interest tag whose meaning
// is resolved outside the map.
const (
	Empty  = 0
	Wall   = 1
	Tagged = 2

	// OutOfBounds is returned by At for coordinates outside the grid.
	// It is solid so rays always terminate.
	OutOfBounds = Wall
)

// ErrMalformed is returned by New for empty or non-rectangular grids.
var ErrMalformed = errors.New("malformed tile map")

// TileMap is an immutable rectangular grid of cell codes, indexed [y][x].
type TileMap struct {
	width, height int
	cells         []int
}

// New copies rows into a TileMap. Every row must have the same non-zero length.
func New(rows [][]int) (*TileMap, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrMalformed)
	}
	width := len(rows[0])
	if width == 0 {
		return nil, fmt.Errorf("%w: row 0 is empty", ErrMalformed)
	}
	cells := make([]int, 0, width*len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrMalformed, y, len(row), width)
		}
		for x, code := range row {
			if code < 0 {
				return nil, fmt.Errorf("%w: negative code %d at (%d,%d)", ErrMalformed, code, x, y)
			}
		}
		cells = append(cells, row...)
	}
	return &TileMap{width: width, height: len(rows), cells: cells}, nil
}

// MustNew is New for static level data known to be well formed.
func MustNew(rows [][]int) *TileMap {
	m, err := New(rows)
	if err != nil {
		panic(err)
	}
	return m
}

// Width returns the number of columns.
func (m *TileMap) Width() int { return m.width }

// Height returns the number of rows.
func (m *TileMap) Height() int { return m.height }

// InBounds reports whether (cx, cy) is within the map boundaries.
func (m *TileMap) InBounds(cx, cy int) bool {
	return cx >= 0 && cx < m.width && cy >= 0 && cy < m.height
}

// At returns the code at (cx, cy), or OutOfBounds outside the grid.
func (m *TileMap) At(cx, cy int) int {
	if !m.InBounds(cx, cy) {
		return OutOfBounds
	}
	return m.cells[cy*m.width+cx]
}

// IsWall reports whether (cx, cy) is a plain wall or lies outside the map.
func (m *TileMap) IsWall(cx, cy int) bool {
	return m.At(cx, cy) == Wall
}

// IsWalkable returns true for empty floor and every tagged cell.
// Plain walls and out-of-bounds cells are not walkable.
func (m *TileMap) IsWalkable(cx, cy int) bool {
	if !m.InBounds(cx, cy) {
		return false
	}
	code := m.cells[cy*m.width+cx]
	return code == Empty || code >= Tagged
}

// IsEmpty reports whether (cx, cy) is in bounds and plain floor.
func (m *TileMap) IsEmpty(cx, cy int) bool {
	return m.InBounds(cx, cy) && m.cells[cy*m.width+cx] == Empty
}

// IsTagged reports whether (cx, cy) carries a point-of-interest code.
func (m *TileMap) IsTagged(cx, cy int) bool {
	return m.InBounds(cx, cy) && m.cells[cy*m.width+cx] >= Tagged
}

// Rows returns a copy of the grid as row slices.
func (m *TileMap) Rows() [][]int {
	rows := make([][]int, m.height)
	for y := range rows {
		rows[y] = append([]int(nil), m.cells[y*m.width:(y+1)*m.width]...)
	}
	return rows
}
