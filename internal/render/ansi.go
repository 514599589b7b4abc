package render

import (
	"image/color"
	"io"
	"strings"

	gcolor "github.com/gookit/color"
)

// AnsiSurface buffers a frame and prints it as 24-bit ANSI half blocks,
// two pixel rows per text line.
type AnsiSurface struct {
	w, h int
	pix  []color.RGBA
}

// NewAnsiSurface returns a surface cols wide and rows text lines tall.
func NewAnsiSurface(cols, rows int) *AnsiSurface {
	cols, rows = max(cols, 0), max(rows, 0)
	return &AnsiSurface{w: cols, h: rows * 2, pix: make([]color.RGBA, cols*rows*2)}
}

// Size implements scene.Surface.
func (s *AnsiSurface) Size() (int, int) { return s.w, s.h }

// FillColumn implements scene.Surface.
func (s *AnsiSurface) FillColumn(x, y0, y1 int, c color.RGBA) {
	if x < 0 || x >= s.w {
		return
	}
	for y := max(y0, 0); y < min(y1, s.h); y++ {
		s.pix[y*s.w+x] = c
	}
}

// Lines renders the buffer, one string per text line. Runs of identical
// cells share one escape sequence.
func (s *AnsiSurface) Lines() []string {
	lines := make([]string, 0, s.h/2)
	var sb, run strings.Builder
	for row := 0; row+1 < s.h; row += 2 {
		sb.Reset()
		var cur [2]color.RGBA
		for x := 0; x < s.w; x++ {
			cell := [2]color.RGBA{s.pix[row*s.w+x], s.pix[(row+1)*s.w+x]}
			if x > 0 && cell != cur {
				sb.WriteString(halfBlock(cur, run.String()))
				run.Reset()
			}
			cur = cell
			run.WriteRune(HalfBlock)
		}
		if run.Len() > 0 {
			sb.WriteString(halfBlock(cur, run.String()))
			run.Reset()
		}
		lines = append(lines, sb.String())
	}
	return lines
}

// WriteTo writes every line followed by a newline.
func (s *AnsiSurface) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, ln := range s.Lines() {
		k, err := io.WriteString(w, ln+"\n")
		n += int64(k)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func halfBlock(c [2]color.RGBA, text string) string {
	st := gcolor.NewRGBStyle(
		gcolor.RGB(c[0].R, c[0].G, c[0].B),
		gcolor.RGB(c[1].R, c[1].G, c[1].B, true),
	)
	return st.Sprint(text)
}
