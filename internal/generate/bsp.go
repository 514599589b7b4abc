// Package generate builds gallery levels procedurally: BSP rooms joined by
// corridors, with works hung on the room walls.
package generate

import (
	"math/rand"

	"nise/internal/tilemap"
)

// CorridorStyle selects the shape of connecting corridors.
type CorridorStyle uint8

const (
	CorridorLShaped CorridorStyle = iota
	CorridorZShaped
	CorridorStraight
)

// Rect is a room, corners inclusive.
type Rect struct {
	X1, Y1, X2, Y2 int
}

// Center returns the center cell of the rectangle.
func (r Rect) Center() (int, int) {
	return (r.X1 + r.X2) / 2, (r.Y1 + r.Y2) / 2
}

// Intersects reports whether r overlaps other (inclusive edges).
func (r Rect) Intersects(other Rect) bool {
	return r.X1 <= other.X2 && r.X2 >= other.X1 &&
		r.Y1 <= other.Y2 && r.Y2 >= other.Y1
}

// Plan is a generated floor plan in tile codes.
type Plan struct {
	Width, Height int
	Grid          [][]int
	Rooms         []Rect
}

func newPlan(w, h int) *Plan {
	grid := make([][]int, h)
	for y := range grid {
		grid[y] = make([]int, w)
		for x := range grid[y] {
			grid[y][x] = tilemap.Wall
		}
	}
	return &Plan{Width: w, Height: h, Grid: grid}
}

// InBounds reports whether (x, y) is inside the plan.
func (p *Plan) InBounds(x, y int) bool {
	return x >= 0 && x < p.Width && y >= 0 && y < p.Height
}

// IsFloor reports whether (x, y) is carved floor.
func (p *Plan) IsFloor(x, y int) bool {
	return p.InBounds(x, y) && p.Grid[y][x] == tilemap.Empty
}

func (p *Plan) carve(x, y int) {
	if p.InBounds(x, y) {
		p.Grid[y][x] = tilemap.Empty
	}
}

// Config drives generation of one plan.
type Config struct {
	Width, Height int
	MinLeafSize   int
	MaxLeafSize   int
	MinRoomSize   int
	RoomPadding   int
	CorridorStyle CorridorStyle
	Rand          *rand.Rand
}

// DefaultConfig returns a 40x24 plan config seeded with seed.
func DefaultConfig(seed int64) *Config {
	return &Config{
		Width:         40,
		Height:        24,
		MinLeafSize:   8,
		MaxLeafSize:   16,
		MinRoomSize:   4,
		RoomPadding:   1,
		CorridorStyle: CorridorLShaped,
		Rand:          rand.New(rand.NewSource(seed)),
	}
}

// bspLeaf is a node in the BSP tree.
type bspLeaf struct {
	X, Y, W, H  int
	left, right *bspLeaf
	room        *Rect
}

// split divides the leaf into two children, returning false when leaf is too small.
func (l *bspLeaf) split(cfg *Config) bool {
	if l.left != nil || l.right != nil {
		return false
	}
	// Split across the longer side when the leaf is clearly elongated.
	splitH := cfg.Rand.Intn(2) == 0
	if l.W > l.H && float64(l.W)/float64(l.H) >= 1.25 {
		splitH = false
	} else if l.H > l.W && float64(l.H)/float64(l.W) >= 1.25 {
		splitH = true
	}

	maxSize := l.H
	if !splitH {
		maxSize = l.W
	}
	lo := cfg.MinLeafSize
	hi := maxSize - cfg.MinLeafSize
	if maxSize <= cfg.MinLeafSize*2 || lo >= hi {
		return false
	}
	at := lo + cfg.Rand.Intn(hi-lo+1)

	if splitH {
		l.left = &bspLeaf{X: l.X, Y: l.Y, W: l.W, H: at}
		l.right = &bspLeaf{X: l.X, Y: l.Y + at, W: l.W, H: l.H - at}
	} else {
		l.left = &bspLeaf{X: l.X, Y: l.Y, W: at, H: l.H}
		l.right = &bspLeaf{X: l.X + at, Y: l.Y, W: l.W - at, H: l.H}
	}
	return true
}

// createRooms carves one room inside every terminal leaf.
func (l *bspLeaf) createRooms(p *Plan, cfg *Config) {
	if l.left != nil || l.right != nil {
		if l.left != nil {
			l.left.createRooms(p, cfg)
		}
		if l.right != nil {
			l.right.createRooms(p, cfg)
		}
		return
	}
	pad := cfg.RoomPadding
	minSize := cfg.MinRoomSize
	availW := max(l.W-2*pad, minSize)
	availH := max(l.H-2*pad, minSize)

	rw := minSize + cfg.Rand.Intn(max(1, availW-minSize+1))
	rh := minSize + cfg.Rand.Intn(max(1, availH-minSize+1))
	rw = max(min(rw, l.W-2*pad), 3)
	rh = max(min(rh, l.H-2*pad), 3)

	rx := max(l.X+pad+cfg.Rand.Intn(max(1, l.W-rw-2*pad+1)), 1)
	ry := max(l.Y+pad+cfg.Rand.Intn(max(1, l.H-rh-2*pad+1)), 1)
	// Keep a wall border around the plan.
	if rx+rw >= p.Width {
		rw = p.Width - rx - 1
	}
	if ry+rh >= p.Height {
		rh = p.Height - ry - 1
	}
	if rw < 3 || rh < 3 {
		return
	}

	room := Rect{X1: rx, Y1: ry, X2: rx + rw - 1, Y2: ry + rh - 1}
	l.room = &room
	for y := room.Y1; y <= room.Y2; y++ {
		for x := room.X1; x <= room.X2; x++ {
			p.carve(x, y)
		}
	}
	p.Rooms = append(p.Rooms, room)
}

// getRoom returns a room from this leaf's subtree, preferring the left side.
func (l *bspLeaf) getRoom() *Rect {
	if l.room != nil {
		return l.room
	}
	var lRoom, rRoom *Rect
	if l.left != nil {
		lRoom = l.left.getRoom()
	}
	if l.right != nil {
		rRoom = l.right.getRoom()
	}
	if lRoom == nil {
		return rRoom
	}
	return lRoom
}

// connectChildren carves corridors between the two children of a split leaf.
func (l *bspLeaf) connectChildren(p *Plan, cfg *Config) {
	if l.left == nil || l.right == nil {
		return
	}
	l.left.connectChildren(p, cfg)
	l.right.connectChildren(p, cfg)

	lRoom := l.left.getRoom()
	rRoom := l.right.getRoom()
	if lRoom == nil || rRoom == nil {
		return
	}
	lCX, lCY := lRoom.Center()
	rCX, rCY := rRoom.Center()
	carveCorridor(p, lCX, lCY, rCX, rCY, cfg)
}

// Generate runs BSP generation. Every floor cell of the result is reachable
// from every other.
func Generate(cfg *Config) *Plan {
	p := newPlan(cfg.Width, cfg.Height)
	root := &bspLeaf{X: 0, Y: 0, W: cfg.Width, H: cfg.Height}

	leaves := []*bspLeaf{root}
	splitAny := true
	for splitAny {
		splitAny = false
		var next []*bspLeaf
		for _, leaf := range leaves {
			if leaf.left != nil || leaf.right != nil {
				next = append(next, leaf.left, leaf.right)
				continue
			}
			if leaf.W > cfg.MaxLeafSize || leaf.H > cfg.MaxLeafSize ||
				cfg.Rand.Float64() > 0.25 {
				if leaf.split(cfg) {
					next = append(next, leaf.left, leaf.right)
					splitAny = true
					continue
				}
			}
			next = append(next, leaf)
		}
		leaves = next
	}

	root.createRooms(p, cfg)
	root.connectChildren(p, cfg)
	return p
}
