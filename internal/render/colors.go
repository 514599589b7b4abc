package render

import (
	"image/color"

	"github.com/gdamore/tcell/v2"

	"nise/internal/minimap"
)

// TermColor converts c to a true-color tcell color. tcell downgrades it on
// terminals without 24-bit support.
func TermColor(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// UI colors.
var (
	ColorHUDText   = tcell.NewRGBColor(0x20, 0x21, 0x24)
	ColorHUDSubtle = tcell.NewRGBColor(0x5f, 0x63, 0x68)
	ColorHUDBg     = tcell.NewRGBColor(0xff, 0xff, 0xff)
	ColorPanelBg   = tcell.NewRGBColor(0xf8, 0xf9, 0xfa)
	ColorSeparator = tcell.NewRGBColor(0xda, 0xdc, 0xe0)
)

// MinimapBg is the inset's background.
var MinimapBg = tcell.NewRGBColor(0x10, 0x10, 0x10)

// minimapColors maps categories that carry no per-cell color.
var minimapColors = map[minimap.Category]tcell.Color{
	minimap.Blank:   MinimapBg,
	minimap.Wall:    tcell.NewRGBColor(0x80, 0x80, 0x80),
	minimap.Tagged:  tcell.NewRGBColor(0xff, 0xff, 0x00),
	minimap.Player:  tcell.NewRGBColor(0xff, 0x00, 0x00),
	minimap.Heading: tcell.NewRGBColor(0xff, 0x00, 0x00),
	minimap.Portal:  tcell.NewRGBColor(0x4e, 0xcd, 0xc4),
	minimap.Info:    tcell.NewRGBColor(0xfb, 0xbc, 0x04),
	minimap.Artwork: tcell.NewRGBColor(0x9c, 0x27, 0xb0),
}

// MinimapColor returns the foreground for a minimap category.
func MinimapColor(c minimap.Category) tcell.Color {
	if col, ok := minimapColors[c]; ok {
		return col
	}
	return tcell.ColorWhite
}
