package render

import (
	"github.com/gdamore/tcell/v2"

	"nise/internal/level"
)

// DrawPage renders a section page over the whole screen. back is the hint
// shown on the last row.
func (r *Renderer) DrawPage(sec level.Section, back string) {
	s := r.layout.Screen
	base := tcell.StyleDefault.Background(ColorHUDBg).Foreground(ColorHUDText)
	r.fill(s, base)
	if s.H < 4 || s.W < 10 {
		return
	}
	width := min(s.W-4, 72)
	x := (s.W - width) / 2
	r.drawText(1, 0, s.W-2, "nise", base.Bold(true))
	r.drawHLine(1, ColorSeparator)
	y := 3
	for _, ln := range Wrap(sec.Title, width) {
		if y >= s.H-2 {
			break
		}
		r.DrawCentered(y, ln, base.Bold(true))
		y++
	}
	if sec.Subtitle != "" {
		for _, ln := range Wrap(sec.Subtitle, width) {
			if y >= s.H-2 {
				break
			}
			r.DrawCentered(y, ln, base.Foreground(ColorHUDSubtle))
			y++
		}
	}
	y++
	for _, para := range sec.Body {
		for _, ln := range Wrap(para, width) {
			if y >= s.H-2 {
				break
			}
			r.drawText(x, y, width, ln, base.Foreground(ColorHUDSubtle))
			y++
		}
		y++
	}
	if sec.Link != "" && y < s.H-2 {
		r.drawText(x, y, width, sec.Link, base.Foreground(tcell.NewRGBColor(0x1a, 0x73, 0xe8)).Underline(true))
	}
	r.DrawCentered(s.H-1, back, base.Foreground(ColorHUDSubtle))
}
