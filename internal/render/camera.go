package render

// Rect is a screen rectangle in terminal cells.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// HUDRows is the number of rows reserved at the bottom of the screen.
const HUDRows = 3

// Minimap inset bounds, in terminal cells.
const (
	MinimapMaxCols = 32
	MinimapMaxRows = 16
	MinimapMinCols = 8
)

// Layout partitions the screen into the 3D view, the HUD strip and the
// minimap inset drawn over the view's top-right corner.
type Layout struct {
	Screen  Rect
	View    Rect
	HUD     Rect
	Minimap Rect // zero when the screen is too small
}

// NewLayout computes the layout for a w x h screen.
func NewLayout(w, h int) Layout {
	w, h = max(w, 0), max(h, 0)
	l := Layout{Screen: Rect{0, 0, w, h}}
	hud := min(HUDRows, h)
	l.View = Rect{0, 0, w, h - hud}
	l.HUD = Rect{0, h - hud, w, hud}

	// Terminal cells are about twice as tall as wide: two columns per map
	// cell keeps a square map square.
	cols := min(MinimapMaxCols, w/3)
	rows := min(MinimapMaxRows, l.View.H/2)
	if cols >= MinimapMinCols && rows >= MinimapMinCols/2 {
		rows = min(rows, cols/2)
		cols = rows * 2
		l.Minimap = Rect{X: w - cols - 1, Y: 1, W: cols, H: rows}
	}
	return l
}
