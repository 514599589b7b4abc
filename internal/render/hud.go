package render

import (
	"image/color"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"nise/internal/minimap"
)

// HUD is the text drawn below the view.
type HUD struct {
	Title  string
	Status string
	Hint   string
}

// Panel is the info card shown while the player looks at a point of
// interest.
type Panel struct {
	Kicker string
	Title  string
	Text   string
}

// DrawHUD renders the separator, the status line and the controls hint.
func (r *Renderer) DrawHUD(h HUD) {
	a := r.layout.HUD
	if a.H == 0 {
		return
	}
	base := tcell.StyleDefault.Background(ColorHUDBg)
	r.fill(a, base)
	r.drawHLine(a.Y, ColorSeparator)
	if a.H > 1 {
		x := r.drawText(a.X+1, a.Y+1, a.W-2, h.Title, base.Foreground(ColorHUDText).Bold(true))
		if h.Status != "" {
			sw := runewidth.StringWidth(h.Status)
			if sx := a.X + a.W - 1 - sw; sx > x+1 {
				r.drawText(sx, a.Y+1, sw, h.Status, base.Foreground(ColorHUDSubtle))
			}
		}
	}
	if a.H > 2 {
		r.drawText(a.X+1, a.Y+2, a.W-2, h.Hint, base.Foreground(ColorHUDSubtle))
	}
}

// DrawPanel draws p as a card at the bottom of the view.
func (r *Renderer) DrawPanel(p Panel) {
	v := r.layout.View
	w := min(v.W-4, 60)
	if w < 10 {
		return
	}
	lines := Wrap(p.Text, w-4)
	h := 3 + len(lines)
	if p.Kicker != "" {
		h++
	}
	if h+1 > v.H {
		return
	}
	box := Rect{X: v.X + (v.W-w)/2, Y: v.Y + v.H - h - 1, W: w, H: h}
	bg := tcell.StyleDefault.Background(ColorPanelBg)
	r.fill(box, bg)
	y := box.Y + 1
	if p.Kicker != "" {
		r.drawText(box.X+2, y, w-4, strings.ToUpper(p.Kicker), bg.Foreground(ColorHUDSubtle))
		y++
	}
	r.drawText(box.X+2, y, w-4, p.Title, bg.Foreground(ColorHUDText).Bold(true))
	y++
	for _, ln := range lines {
		r.drawText(box.X+2, y, w-4, ln, bg.Foreground(ColorHUDSubtle))
		y++
	}
}

// DrawMinimap rasterizes s into the layout's minimap inset. palette colors
// tagged cells by code; categories without a palette entry use MinimapColor.
func (r *Renderer) DrawMinimap(s minimap.Schematic, palette map[int]color.RGBA) {
	a := r.layout.Minimap
	if a.W == 0 || a.H == 0 {
		return
	}
	codes := make(map[[2]int]int, len(s.Marks))
	for _, mk := range s.Marks {
		codes[[2]int{mk.X, mk.Y}] = mk.Code
	}
	ras := s.Rasterize(a.W, a.H)
	sx := float64(s.Width) / float64(a.W)
	sy := float64(s.Height) / float64(a.H)
	for row := 0; row < a.H; row++ {
		for col := 0; col < a.W; col++ {
			cat := ras.At(col, row)
			fg := MinimapColor(cat)
			if cat == minimap.Portal || cat == minimap.Info || cat == minimap.Artwork {
				cell := [2]int{int(float64(col) * sx), int(float64(row) * sy)}
				if c, ok := palette[codes[cell]]; ok {
					fg = TermColor(c)
				}
			}
			glyph := cat.Glyph()
			if cat == minimap.Wall {
				glyph = '█'
			}
			r.screen.SetContent(a.X+col, a.Y+row, glyph, nil, tcell.StyleDefault.Foreground(fg).Background(MinimapBg))
		}
	}
}

// DrawCentered draws text centered on row y.
func (r *Renderer) DrawCentered(y int, text string, style tcell.Style) {
	w := r.layout.Screen.W
	tw := runewidth.StringWidth(text)
	r.drawText(max((w-tw)/2, 0), y, w, text, style)
}

func (r *Renderer) fill(a Rect, style tcell.Style) {
	for y := a.Y; y < a.Y+a.H; y++ {
		for x := a.X; x < a.X+a.W; x++ {
			r.screen.SetContent(x, y, ' ', nil, style)
		}
	}
}

func (r *Renderer) drawHLine(y int, c tcell.Color) {
	w, _ := r.screen.Size()
	style := tcell.StyleDefault.Foreground(c).Background(ColorHUDBg)
	for x := 0; x < w; x++ {
		r.screen.SetContent(x, y, '─', nil, style)
	}
}

// drawText draws text from column x, clipped to width columns, and returns
// the column after the last glyph. Wide glyphs take two columns.
func (r *Renderer) drawText(x, y, width int, text string, style tcell.Style) int {
	col := x
	for _, ch := range text {
		cw := runewidth.RuneWidth(ch)
		if cw == 0 {
			continue
		}
		if col+cw > x+width {
			break
		}
		r.screen.SetContent(col, y, ch, nil, style)
		col += cw
	}
	return col
}

// Wrap breaks text into lines of at most width display columns, splitting
// on spaces where possible.
func Wrap(text string, width int) []string {
	if width <= 0 {
		return nil
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			for runewidth.StringWidth(word) > width {
				if line != "" {
					lines = append(lines, line)
					line = ""
				}
				head := runewidth.Truncate(word, width, "")
				if head == "" {
					_, n := utf8.DecodeRuneInString(word)
					head = word[:n]
				}
				lines = append(lines, head)
				word = word[len(head):]
			}
			switch {
			case line == "":
				line = word
			case runewidth.StringWidth(line)+1+runewidth.StringWidth(word) <= width:
				line += " " + word
			default:
				lines = append(lines, line)
				line = word
			}
		}
		if line != "" || para == "" {
			lines = append(lines, line)
		}
	}
	return lines
}
