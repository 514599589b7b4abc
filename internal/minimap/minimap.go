// Package minimap projects a tile map and the player onto a small top-down
// schematic. Everything here is pure.
package minimap

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"nise/internal/player"
	"nise/internal/proximity"
	"nise/internal/tilemap"
)

// Category decides how a mark is drawn.
type Category uint8

const (
	Blank Category = iota
	Wall
	Portal
	Info
	Artwork
	Tagged // tagged cell with no known content
	Heading
	Player
)

var categoryNames = [...]string{"blank", "wall", "portal", "info", "artwork", "tagged", "heading", "player"}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "blank"
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseCategory is the inverse of Category.String.
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return Blank, fmt.Errorf("minimap: unknown category %q", s)
}

// Glyph is the terminal rune for c.
func (c Category) Glyph() rune {
	switch c {
	case Wall:
		return '#'
	case Portal:
		return 'O'
	case Info:
		return 'i'
	case Artwork:
		return '*'
	case Tagged:
		return '?'
	case Player:
		return '@'
	case Heading:
		return '.'
	}
	return ' '
}

// DefaultHeadingLength is the heading line length in cells.
const DefaultHeadingLength = 0.8

// Mark is one non-empty cell.
type Mark struct {
	X        int      `json:"x"`
	Y        int      `json:"y"`
	Code     int      `json:"code"`
	Category Category `json:"category"`
}

// Schematic is the projected minimap.
type Schematic struct {
	Width   int        `json:"width"`
	Height  int        `json:"height"`
	Marks   []Mark     `json:"marks"`
	Player  mgl64.Vec2 `json:"player"`
	Heading mgl64.Vec2 `json:"heading"`
}

// Options tunes Project. The zero value is usable.
type Options struct {
	// Lookup classifies tagged cells. Nil marks them all Tagged.
	Lookup        proximity.Lookup
	HeadingLength float64
}

// Project returns one mark per non-empty cell plus the player marker and the
// end point of the heading line (pos + dir*HeadingLength).
func Project(m *tilemap.TileMap, p *player.State, opts Options) Schematic {
	hl := opts.HeadingLength
	if hl == 0 {
		hl = DefaultHeadingLength
	}
	s := Schematic{
		Width:   m.Width(),
		Height:  m.Height(),
		Player:  p.Pos,
		Heading: p.Pos.Add(p.Dir.Mul(hl)),
	}
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			code := m.At(x, y)
			if code == tilemap.Empty {
				continue
			}
			s.Marks = append(s.Marks, Mark{X: x, Y: y, Code: code, Category: classify(code, x, y, opts.Lookup)})
		}
	}
	return s
}

func classify(code, x, y int, lookup proximity.Lookup) Category {
	if code == tilemap.Wall {
		return Wall
	}
	if lookup == nil {
		return Tagged
	}
	t, ok := lookup.PointAt(x, y)
	if !ok {
		return Tagged
	}
	switch t.Kind {
	case proximity.KindPortal:
		return Portal
	case proximity.KindInfo:
		return Info
	case proximity.KindArtwork:
		return Artwork
	}
	return Tagged
}

// Raster is a schematic scaled onto a character grid, row-major.
type Raster struct {
	Cols, Rows int
	Cells      []Category
}

// At returns the category at (col, row).
func (r Raster) At(col, row int) Category {
	if col < 0 || row < 0 || col >= r.Cols || row >= r.Rows {
		return Blank
	}
	return r.Cells[row*r.Cols+col]
}

// Lines renders the raster as strings of glyphs.
func (r Raster) Lines() []string {
	out := make([]string, r.Rows)
	buf := make([]rune, r.Cols)
	for row := 0; row < r.Rows; row++ {
		for col := 0; col < r.Cols; col++ {
			buf[col] = r.At(col, row).Glyph()
		}
		out[row] = string(buf)
	}
	return out
}

// Rasterize scales s to cols x rows. Marks that share a character keep the
// highest-priority category; the heading and player are drawn last.
func (s Schematic) Rasterize(cols, rows int) Raster {
	r := Raster{Cols: cols, Rows: rows}
	if cols <= 0 || rows <= 0 || s.Width == 0 || s.Height == 0 {
		r.Cols, r.Rows = max(cols, 0), max(rows, 0)
		r.Cells = make([]Category, r.Cols*r.Rows)
		return r
	}
	r.Cells = make([]Category, cols*rows)
	sx := float64(cols) / float64(s.Width)
	sy := float64(rows) / float64(s.Height)
	put := func(wx, wy float64, c Category) {
		col := int(math.Floor(wx * sx))
		row := int(math.Floor(wy * sy))
		if col < 0 || row < 0 || col >= cols || row >= rows {
			return
		}
		if i := row*cols + col; c >= r.Cells[i] {
			r.Cells[i] = c
		}
	}
	for _, mk := range s.Marks {
		put(float64(mk.X)+0.5, float64(mk.Y)+0.5, mk.Category)
	}
	put(s.Heading.X(), s.Heading.Y(), Heading)
	put(s.Player.X(), s.Player.Y(), Player)
	return r
}
