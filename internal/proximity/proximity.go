// Package proximity raises events when the player steps onto or looks at a
// tagged cell. One Detector belongs to one scene and owns its latch.
package proximity

import (
	"fmt"
	"log/slog"

	"nise/internal/player"
	"nise/internal/raycast"
	"nise/internal/tilemap"
)

// Kind classifies a point of interest.
type Kind uint8

const (
	KindNone Kind = iota
	KindPortal
	KindInfo
	KindArtwork
)

func (k Kind) String() string {
	switch k {
	case KindPortal:
		return "portal"
	case KindInfo:
		return "info"
	case KindArtwork:
		return "artwork"
	}
	return "none"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "portal":
		return KindPortal, nil
	case "info":
		return KindInfo, nil
	case "artwork":
		return KindArtwork, nil
	case "none", "":
		return KindNone, nil
	}
	return KindNone, fmt.Errorf("proximity: unknown kind %q", s)
}

// Event is delivered to scene listeners. A zero Event means "looking at
// nothing" in gaze mode.
type Event struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id,omitempty"`
}

// Target is the content metadata attached to a tagged cell.
type Target struct {
	Kind  Kind
	ID    string
	Title string
}

// Lookup resolves a tagged cell to its content metadata.
type Lookup interface {
	PointAt(cx, cy int) (Target, bool)
}

// Cell is a grid coordinate.
type Cell struct{ X, Y int }

// Points is a Lookup backed by a map.
type Points map[Cell]Target

func (p Points) PointAt(cx, cy int) (Target, bool) {
	t, ok := p[Cell{cx, cy}]
	return t, ok
}

// Mode selects the trigger policy.
type Mode uint8

const (
	// Footstep fires once when the player's cell becomes tagged.
	Footstep Mode = iota
	// Gaze reports what the centre column looks at, every tick.
	Gaze
)

func (m Mode) String() string {
	if m == Gaze {
		return "gaze"
	}
	return "footstep"
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "footstep", "":
		return Footstep, nil
	case "gaze":
		return Gaze, nil
	}
	return Footstep, fmt.Errorf("proximity: unknown mode %q", s)
}

// Detector evaluates one proximity policy per tick.
type Detector struct {
	Mode         Mode
	GazeDistance float64

	lookup Lookup
	log    *slog.Logger
	inside bool
	warned map[Cell]bool
}

// NewDetector returns a detector with a cleared latch. A nil logger uses
// slog.Default.
func NewDetector(mode Mode, lookup Lookup, gazeDistance float64, log *slog.Logger) *Detector {
	if log == nil {
		log = slog.Default()
	}
	return &Detector{
		Mode:         mode,
		GazeDistance: gazeDistance,
		lookup:       lookup,
		log:          log,
		warned:       make(map[Cell]bool),
	}
}

// Inside reports the footstep latch.
func (d *Detector) Inside() bool { return d.inside }

// Check evaluates the policy for the current tick. centre is the ray hit of
// the centre column and is only consulted in gaze mode. The bool result is
// false when nothing should be delivered this tick.
func (d *Detector) Check(p *player.State, m *tilemap.TileMap, centre raycast.Hit) (Event, bool) {
	if d.Mode == Gaze {
		return d.gaze(m, centre), true
	}
	return d.footstep(p, m)
}

func (d *Detector) footstep(p *player.State, m *tilemap.TileMap) (Event, bool) {
	cx, cy := p.Cell()
	if !m.IsTagged(cx, cy) {
		d.inside = false
		return Event{}, false
	}
	if d.inside {
		return Event{}, false
	}
	d.inside = true
	t, ok := d.resolve(cx, cy)
	if !ok {
		return Event{}, false
	}
	return Event{Kind: t.Kind, ID: t.ID}, true
}

func (d *Detector) gaze(m *tilemap.TileMap, h raycast.Hit) Event {
	if !m.IsTagged(h.CellX, h.CellY) || h.PerpDist >= d.GazeDistance {
		return Event{}
	}
	t, ok := d.resolve(h.CellX, h.CellY)
	if !ok {
		return Event{}
	}
	return Event{Kind: t.Kind, ID: t.ID}
}

func (d *Detector) resolve(cx, cy int) (Target, bool) {
	if d.lookup != nil {
		if t, ok := d.lookup.PointAt(cx, cy); ok && t.Kind != KindNone && t.ID != "" {
			return t, true
		}
	}
	c := Cell{cx, cy}
	if !d.warned[c] {
		d.warned[c] = true
		d.log.Warn("tagged cell has no content", "x", cx, "y", cy)
	}
	return Target{}, false
}
