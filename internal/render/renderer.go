package render

import (
	"image/color"

	"github.com/gdamore/tcell/v2"
)

// HalfBlock draws two vertical pixels per terminal cell: the foreground
// colors the upper half, the background the lower.
const HalfBlock = '▀'

// Renderer draws scene frames onto a tcell screen. The 3D view fills the
// area above the HUD; each terminal cell holds two pixel rows.
type Renderer struct {
	screen tcell.Screen
	layout Layout
	pix    []color.RGBA // w * 2*h pixels of the view area, row-major
}

// NewRenderer creates a Renderer for the given screen.
func NewRenderer(screen tcell.Screen) *Renderer {
	r := &Renderer{screen: screen}
	r.Resize()
	return r
}

// Resize re-reads the screen size. Call it on tcell.EventResize.
func (r *Renderer) Resize() {
	w, h := r.screen.Size()
	r.layout = NewLayout(w, h)
	n := r.layout.View.W * r.layout.View.H * 2
	if cap(r.pix) < n {
		r.pix = make([]color.RGBA, n)
	}
	r.pix = r.pix[:n]
}

// Layout returns the current screen partition.
func (r *Renderer) Layout() Layout { return r.layout }

// Screen returns the underlying screen.
func (r *Renderer) Screen() tcell.Screen { return r.screen }

// Size implements scene.Surface: one column per terminal column, two pixel
// rows per terminal row.
func (r *Renderer) Size() (int, int) {
	return r.layout.View.W, r.layout.View.H * 2
}

// FillColumn implements scene.Surface.
func (r *Renderer) FillColumn(x, y0, y1 int, c color.RGBA) {
	w, h := r.Size()
	if x < 0 || x >= w {
		return
	}
	y0 = max(y0, 0)
	y1 = min(y1, h)
	for y := y0; y < y1; y++ {
		r.pix[y*w+x] = c
	}
}

// Present copies the pixel buffer to the screen. It does not call Show.
func (r *Renderer) Present() {
	v := r.layout.View
	w := v.W
	for row := 0; row < v.H; row++ {
		for col := 0; col < w; col++ {
			top := r.pix[(2*row)*w+col]
			bot := r.pix[(2*row+1)*w+col]
			style := tcell.StyleDefault.Foreground(TermColor(top)).Background(TermColor(bot))
			r.screen.SetContent(v.X+col, v.Y+row, HalfBlock, nil, style)
		}
	}
}

// Clear blanks the whole screen.
func (r *Renderer) Clear() {
	r.screen.Clear()
}
