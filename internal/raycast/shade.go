package raycast

import (
	"image/color"
	"math"
)

// Default colors.
var (
	DefaultWall    = color.RGBA{0xe0, 0xe0, 0xe0, 0xff}
	DefaultCeiling = color.RGBA{0xfa, 0xfa, 0xfa, 0xff}
	DefaultFloor   = color.RGBA{0xe0, 0xe0, 0xe0, 0xff}
)

// SideShade darkens y-facing wall faces.
const SideShade = 0.7

// Shader picks the fill color of a wall slice.
type Shader struct {
	Wall color.RGBA
	// Tagged maps a cell code to its base color. Codes missing here are
	// drawn with Wall.
	Tagged map[int]color.RGBA
	// Pulse animates tagged cells with a sinusoidal brightness.
	Pulse bool
}

// NewShader returns a Shader with the default wall color and no tags.
func NewShader() *Shader {
	return &Shader{Wall: DefaultWall, Tagged: make(map[int]color.RGBA), Pulse: true}
}

// PulseAt returns the brightness multiplier at wall-clock seconds t:
// sin(3t)*0.3 + 0.7, which stays within [0.4, 1.0].
func PulseAt(t float64) float64 {
	return math.Sin(t*3)*0.3 + 0.7
}

// Color returns the fill color for h at wall-clock seconds t.
func (s *Shader) Color(h Hit, t float64) color.RGBA {
	c := s.Wall
	if tc, ok := s.Tagged[h.Code]; ok {
		c = tc
		if s.Pulse {
			c = Scale(c, PulseAt(t))
		}
	}
	if h.Side == SideY {
		c = Scale(c, SideShade)
	}
	return c
}

// Scale multiplies the RGB channels of c by f, flooring each channel.
// Alpha is kept.
func Scale(c color.RGBA, f float64) color.RGBA {
	return color.RGBA{
		R: uint8(math.Floor(float64(c.R) * f)),
		G: uint8(math.Floor(float64(c.G) * f)),
		B: uint8(math.Floor(float64(c.B) * f)),
		A: c.A,
	}
}
