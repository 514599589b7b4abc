package system

import (
	"math"

	"nise/internal/input"
	"nise/internal/player"
	"nise/internal/tilemap"
)

// MoveResult describes the outcome of one motion step.
type MoveResult uint8

const (
	MoveNone    MoveResult = iota // no translation requested
	MoveOK                        // position updated
	MoveBlocked                   // candidate cell is a wall; position unchanged
)

func (r MoveResult) String() string {
	switch r {
	case MoveOK:
		return "ok"
	case MoveBlocked:
		return "blocked"
	}
	return "none"
}

// RenormalizeEvery is how many turn steps may accumulate before the
// direction and camera plane are re-orthonormalized.
const RenormalizeEvery = 64

// TryMove translates p by sign*Dir*MoveSpeed (sign +1 forward, -1 back).
// The move is accepted only when the candidate's cell is walkable; blocked
// moves are rejected whole, never clamped against the wall.
func TryMove(p *player.State, m *tilemap.TileMap, sign float64) MoveResult {
	return tryMove(p, sign, m.IsWalkable)
}

func tryMove(p *player.State, sign float64, walkable func(cx, cy int) bool) MoveResult {
	next := p.Pos.Add(p.Dir.Mul(sign * p.MoveSpeed))
	cx, cy := int(math.Floor(next.X())), int(math.Floor(next.Y()))
	if !walkable(cx, cy) {
		return MoveBlocked
	}
	p.Pos = next
	return MoveOK
}

// Motion turns held keys into player motion, one call per tick.
type Motion struct {
	// SolidTags makes tagged cells block like plain walls. Gaze levels set
	// it: their plaques and works sit inside walls and are read from a
	// distance.
	SolidTags bool

	turns int
}

func (mc *Motion) move(p *player.State, m *tilemap.TileMap, sign float64) MoveResult {
	if mc.SolidTags {
		return tryMove(p, sign, m.IsEmpty)
	}
	return tryMove(p, sign, m.IsWalkable)
}

// Step applies one tick of input to p: forward, backward, left turn, right
// turn, each checked independently in that order.
func (mc *Motion) Step(p *player.State, in *input.State, m *tilemap.TileMap) MoveResult {
	result := MoveNone
	if in.Held(input.KeyForward) {
		result = mc.move(p, m, 1)
	}
	if in.Held(input.KeyBackward) {
		if r := mc.move(p, m, -1); result != MoveOK {
			result = r
		}
	}
	if in.Held(input.KeyTurnLeft) {
		mc.turn(p, p.RotSpeed)
	}
	if in.Held(input.KeyTurnRight) {
		mc.turn(p, -p.RotSpeed)
	}
	return result
}

func (mc *Motion) turn(p *player.State, angle float64) {
	p.Rotate(angle)
	mc.turns++
	if mc.turns >= RenormalizeEvery {
		p.Renormalize()
		mc.turns = 0
	}
}
