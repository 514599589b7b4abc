package player

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// State is the viewer's pose on the tile map. Plane is perpendicular to Dir
// and its length is the half-width of the projection plane at distance 1.
type State struct {
	Pos   mgl64.Vec2
	Dir   mgl64.Vec2
	Plane mgl64.Vec2

	MoveSpeed float64 // map units per tick
	RotSpeed  float64 // radians per tick
}

// New builds a State at (x, y) facing (dirX, dirY). The camera plane points
// to the viewer's right: facing (-1, 0) yields a plane of (0, planeLen).
func New(x, y, dirX, dirY, planeLen, moveSpeed, rotSpeed float64) State {
	dir := mgl64.Vec2{dirX, dirY}
	if l := dir.Len(); l > 0 {
		dir = dir.Mul(1 / l)
	}
	return State{
		Pos:       mgl64.Vec2{x, y},
		Dir:       dir,
		Plane:     planeFor(dir, planeLen),
		MoveSpeed: moveSpeed,
		RotSpeed:  rotSpeed,
	}
}

func planeFor(dir mgl64.Vec2, planeLen float64) mgl64.Vec2 {
	return mgl64.Vec2{dir.Y(), -dir.X()}.Mul(planeLen)
}

// Cell returns the integer grid cell containing the position.
func (s *State) Cell() (int, int) {
	return int(math.Floor(s.Pos.X())), int(math.Floor(s.Pos.Y()))
}

// Rotate turns Dir and Plane by the same angle so they stay perpendicular.
func (s *State) Rotate(angle float64) {
	rot := mgl64.Rotate2D(angle)
	s.Dir = rot.Mul2x1(s.Dir)
	s.Plane = rot.Mul2x1(s.Plane)
}

// PlaneLength returns the field-of-view half-width encoded in Plane.
func (s *State) PlaneLength() float64 {
	return s.Plane.Len()
}

// Renormalize restores |Dir| = 1 and re-derives Plane from Dir, preserving
// the plane length and its handedness.
func (s *State) Renormalize() {
	l := s.Dir.Len()
	if l == 0 {
		return
	}
	planeLen := s.Plane.Len()
	s.Dir = s.Dir.Mul(1 / l)
	p := planeFor(s.Dir, planeLen)
	if p.Dot(s.Plane) < 0 {
		p = p.Mul(-1)
	}
	s.Plane = p
}
