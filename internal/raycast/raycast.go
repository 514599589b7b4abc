// Package raycast implements the grid DDA ray caster: one ray per screen
// column, stepped cell by cell until it enters a non-empty cell.
package raycast

import (
	"math"

	"nise/internal/player"
	"nise/internal/tilemap"
)

// Side is the axis of the grid line a ray crossed last before its hit.
type Side uint8

const (
	SideX Side = iota // crossed a vertical grid line (x-facing wall face)
	SideY             // crossed a horizontal grid line (y-facing wall face)
)

// Hit is the result of one cast.
type Hit struct {
	PerpDist     float64 // distance along the view axis, free of fisheye
	Code         int     // cell code of the struck cell
	Side         Side
	CellX, CellY int
	Steps        int // DDA iterations taken
}

// CameraX maps screen column x of width to camera space [-1, 1).
func CameraX(x, width int) float64 {
	return 2*float64(x)/float64(width) - 1
}

// Cast traces the ray through camera-space coordinate cameraX.
// A zero ray direction is a programming error and panics.
func Cast(p *player.State, m *tilemap.TileMap, cameraX float64) Hit {
	rayX := p.Dir.X() + p.Plane.X()*cameraX
	rayY := p.Dir.Y() + p.Plane.Y()*cameraX
	if rayX == 0 && rayY == 0 {
		panic("raycast: zero ray direction")
	}
	return castRay(p.Pos.X(), p.Pos.Y(), rayX, rayY, m)
}

func castRay(posX, posY, rayX, rayY float64, m *tilemap.TileMap) Hit {
	mapX := int(math.Floor(posX))
	mapY := int(math.Floor(posY))

	// A ray parallel to an axis never crosses that axis' grid lines.
	deltaX, deltaY := math.Inf(1), math.Inf(1)
	if rayX != 0 {
		deltaX = math.Abs(1 / rayX)
	}
	if rayY != 0 {
		deltaY = math.Abs(1 / rayY)
	}

	var stepX, stepY int
	var sideX, sideY float64
	if rayX < 0 {
		stepX = -1
		sideX = (posX - float64(mapX)) * deltaX
	} else {
		stepX = 1
		sideX = (float64(mapX) + 1 - posX) * deltaX
	}
	if rayY < 0 {
		stepY = -1
		sideY = (posY - float64(mapY)) * deltaY
	} else {
		stepY = 1
		sideY = (float64(mapY) + 1 - posY) * deltaY
	}
	// 0 * Inf is NaN when the player sits exactly on a grid line and the ray
	// is parallel to it; such an axis is never stepped.
	if math.IsNaN(sideX) {
		sideX = math.Inf(1)
	}
	if math.IsNaN(sideY) {
		sideY = math.Inf(1)
	}

	h := Hit{}
	for {
		if sideX < sideY {
			sideX += deltaX
			mapX += stepX
			h.Side = SideX
		} else {
			sideY += deltaY
			mapY += stepY
			h.Side = SideY
		}
		h.Steps++
		// Out-of-bounds cells read as solid, which bounds the loop.
		if code := m.At(mapX, mapY); code > tilemap.Empty {
			h.Code = code
			break
		}
	}

	h.CellX, h.CellY = mapX, mapY
	if h.Side == SideX {
		h.PerpDist = (float64(mapX) - posX + float64(1-stepX)/2) / rayX
	} else {
		h.PerpDist = (float64(mapY) - posY + float64(1-stepY)/2) / rayY
	}
	return h
}

// CastColumns casts one ray per column of a width-column view, reusing dst
// when it has capacity.
func CastColumns(p *player.State, m *tilemap.TileMap, width int, dst []Hit) []Hit {
	if cap(dst) < width {
		dst = make([]Hit, width)
	}
	dst = dst[:width]
	for x := 0; x < width; x++ {
		dst[x] = Cast(p, m, CameraX(x, width))
	}
	return dst
}

// Span returns the vertical extent [y0, y1) of a wall slice at perpendicular
// distance perp on a screen of the given height, clamped to [0, height].
func Span(perp float64, height int) (y0, y1 int) {
	if perp <= 0 || math.IsNaN(perp) {
		return 0, height
	}
	fh := float64(height) / perp
	if fh > float64(height) {
		return 0, height
	}
	line := int(math.Floor(fh))
	y0 = -line/2 + height/2
	y1 = line/2 + height/2
	if y0 < 0 {
		y0 = 0
	}
	if y1 > height {
		y1 = height
	}
	return y0, y1
}
