package render

import (
	"image/color"

	gcolor "github.com/gookit/color"
)

// Run is a vertical run of N pixels of one color, written as "#rrggbb".
type Run struct {
	N     int    `json:"n"`
	Color string `json:"c"`
}

// StripSurface keeps a frame as per-column color runs, a compact form for
// clients that draw their own canvas.
type StripSurface struct {
	w, h int
	pix  []color.RGBA // column-major
}

// NewStripSurface allocates a w x h surface.
func NewStripSurface(w, h int) *StripSurface {
	w, h = max(w, 0), max(h, 0)
	return &StripSurface{w: w, h: h, pix: make([]color.RGBA, w*h)}
}

// Size implements scene.Surface.
func (s *StripSurface) Size() (int, int) { return s.w, s.h }

// FillColumn implements scene.Surface.
func (s *StripSurface) FillColumn(x, y0, y1 int, c color.RGBA) {
	if x < 0 || x >= s.w {
		return
	}
	col := s.pix[x*s.h : (x+1)*s.h]
	for y := max(y0, 0); y < min(y1, s.h); y++ {
		col[y] = c
	}
}

// Columns encodes every column top to bottom.
func (s *StripSurface) Columns() [][]Run {
	out := make([][]Run, s.w)
	hex := make(map[color.RGBA]string)
	for x := range out {
		col := s.pix[x*s.h : (x+1)*s.h]
		var runs []Run
		for y := 0; y < len(col); {
			c := col[y]
			n := 1
			for y+n < len(col) && col[y+n] == c {
				n++
			}
			h, ok := hex[c]
			if !ok {
				h = HexColor(c)
				hex[c] = h
			}
			runs = append(runs, Run{N: n, Color: h})
			y += n
		}
		out[x] = runs
	}
	return out
}

// HexColor formats c as "#rrggbb".
func HexColor(c color.RGBA) string {
	return "#" + gcolor.RgbToHex([]int{int(c.R), int(c.G), int(c.B)})
}
