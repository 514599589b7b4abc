// Package level loads level documents: the tile grid, the spawn point, the
// proximity policy and the points of interest attached to tagged cells.
package level

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	gcolor "github.com/gookit/color"

	"nise/assets"
	"nise/internal/proximity"
	"nise/internal/raycast"
	"nise/internal/tilemap"
)

var (
	ErrUnknownLevel = errors.New("unknown level")
	ErrInvalid      = errors.New("invalid level")
)

// Spawn is where the player starts.
type Spawn struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	DirX float64 `json:"dir_x"`
	DirY float64 `json:"dir_y"`
}

// Colors are hex strings ("#rrggbb").
type Colors struct {
	Wall    string `json:"wall"`
	Ceiling string `json:"ceiling"`
	Floor   string `json:"floor"`
}

// Point is a point of interest placed on a tagged cell.
type Point struct {
	X     int            `json:"x"`
	Y     int            `json:"y"`
	Kind  proximity.Kind `json:"kind"`
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Color string         `json:"color"`
	Text  string         `json:"text,omitempty"`
	// Goto names the level a portal leads to. Empty means a section page.
	Goto string `json:"goto,omitempty"`
}

// Level is a parsed level document.
type Level struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Mode   string  `json:"mode"`
	Colors Colors  `json:"colors"`
	Spawn  Spawn   `json:"spawn"`
	Grid   [][]int `json:"grid"`
	Points []Point `json:"points"`

	Map           *tilemap.TileMap `json:"-"`
	ProximityMode proximity.Mode   `json:"-"`
	points        proximity.Points
}

// Parse decodes and validates a level document.
func Parse(data []byte) (*Level, error) {
	var l Level
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("level: decode: %w", err)
	}
	if err := l.Init(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Init validates a level built in code and derives its tile map and
// lookup. Parse calls it for decoded documents.
func (l *Level) Init() error {
	if l.ID == "" {
		return fmt.Errorf("level: missing id: %w", ErrInvalid)
	}
	m, err := tilemap.New(l.Grid)
	if err != nil {
		return fmt.Errorf("level %s: %w", l.ID, err)
	}
	l.Map = m
	mode, err := proximity.ParseMode(l.Mode)
	if err != nil {
		return fmt.Errorf("level %s: %w: %w", l.ID, ErrInvalid, err)
	}
	l.ProximityMode = mode
	sx, sy := int(l.Spawn.X), int(l.Spawn.Y)
	if l.Spawn.X < 0 || l.Spawn.Y < 0 || !m.IsWalkable(sx, sy) || m.IsTagged(sx, sy) {
		return fmt.Errorf("level %s: spawn (%g,%g) is not an empty cell: %w", l.ID, l.Spawn.X, l.Spawn.Y, ErrInvalid)
	}
	if l.Spawn.DirX == 0 && l.Spawn.DirY == 0 {
		return fmt.Errorf("level %s: zero spawn direction: %w", l.ID, ErrInvalid)
	}
	for _, c := range []string{l.Colors.Wall, l.Colors.Ceiling, l.Colors.Floor} {
		if _, err := ParseHex(c); c != "" && err != nil {
			return fmt.Errorf("level %s: %w: %w", l.ID, ErrInvalid, err)
		}
	}
	l.points = make(proximity.Points, len(l.Points))
	for _, p := range l.Points {
		if !m.IsTagged(p.X, p.Y) {
			return fmt.Errorf("level %s: point %q at (%d,%d) is not on a tagged cell: %w", l.ID, p.ID, p.X, p.Y, ErrInvalid)
		}
		if p.Color != "" {
			if _, err := ParseHex(p.Color); err != nil {
				return fmt.Errorf("level %s: point %q: %w: %w", l.ID, p.ID, ErrInvalid, err)
			}
		}
		l.points[proximity.Cell{X: p.X, Y: p.Y}] = proximity.Target{Kind: p.Kind, ID: p.ID, Title: p.Title}
	}
	return nil
}

// Lookup returns the position to content mapping for the detector.
func (l *Level) Lookup() proximity.Points { return l.points }

// Point returns the point with the given id.
func (l *Level) Point(id string) (Point, bool) {
	for _, p := range l.Points {
		if p.ID == id {
			return p, true
		}
	}
	return Point{}, false
}

// Destination reports where the portal with the given id leads: the level
// it names, or else the section page with the same id.
func (l *Level) Destination(id string) (levelID, sectionID string) {
	if pt, ok := l.Point(id); ok && pt.Goto != "" {
		return pt.Goto, ""
	}
	return "", id
}

// Shader returns a shader using the level's wall color and one color per
// tagged code. When several points share a code the first one listed wins.
func (l *Level) Shader() *raycast.Shader {
	s := raycast.NewShader()
	if c, err := ParseHex(l.Colors.Wall); err == nil {
		s.Wall = c
	}
	for _, p := range l.Points {
		code := l.Map.At(p.X, p.Y)
		if _, ok := s.Tagged[code]; ok {
			continue
		}
		if c, err := ParseHex(p.Color); err == nil {
			s.Tagged[code] = c
		}
	}
	return s
}

// Ceiling and Floor return the backdrop colors, defaulting to the raycast
// package's.
func (l *Level) Ceiling() color.RGBA { return hexOr(l.Colors.Ceiling, raycast.DefaultCeiling) }
func (l *Level) Floor() color.RGBA   { return hexOr(l.Colors.Floor, raycast.DefaultFloor) }

func hexOr(s string, def color.RGBA) color.RGBA {
	if c, err := ParseHex(s); err == nil {
		return c
	}
	return def
}

// ParseHex parses "#rrggbb" or "rrggbb".
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 || strings.Trim(h, "0123456789abcdefABCDEF") != "" {
		return color.RGBA{}, fmt.Errorf("bad color %q", s)
	}
	rgb := gcolor.HexToRgb(h)
	if len(rgb) != 3 {
		return color.RGBA{}, fmt.Errorf("bad color %q", s)
	}
	return color.RGBA{R: uint8(rgb[0]), G: uint8(rgb[1]), B: uint8(rgb[2]), A: 0xff}, nil
}

// Generator builds a level on demand.
type Generator func() (*Level, error)

var (
	genMu      sync.RWMutex
	generators = map[string]Generator{}
)

// Register makes a generated level loadable under id. Registering an id
// twice, or one an embedded level already uses, panics.
func Register(id string, gen Generator) {
	genMu.Lock()
	defer genMu.Unlock()
	if _, dup := generators[id]; dup || embedded(id) {
		panic("level: Register called twice for " + id)
	}
	generators[id] = gen
}

func embedded(id string) bool {
	_, err := fs.Stat(assets.Levels, path.Join("levels", id+".json"))
	return err == nil
}

// Load returns the level with the given id: an embedded document or a
// registered generator's output.
func Load(id string) (*Level, error) {
	if id == "" || strings.ContainsAny(id, "/\\.") {
		return nil, fmt.Errorf("level %q: %w", id, ErrUnknownLevel)
	}
	genMu.RLock()
	gen := generators[id]
	genMu.RUnlock()
	if gen != nil {
		l, err := gen()
		if err != nil {
			return nil, fmt.Errorf("generate level %q: %w", id, err)
		}
		return l, nil
	}

	data, err := assets.Levels.ReadFile(path.Join("levels", id+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("level %q: %w", id, ErrUnknownLevel)
		}
		return nil, fmt.Errorf("level %q: %w", id, err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if l.ID != id {
		return nil, fmt.Errorf("level file %q declares id %q: %w", id, l.ID, ErrInvalid)
	}
	return l, nil
}

// IDs lists the embedded and registered levels in name order.
func IDs() []string {
	var ids []string
	if entries, err := fs.ReadDir(assets.Levels, "levels"); err == nil {
		for _, e := range entries {
			if name := e.Name(); strings.HasSuffix(name, ".json") {
				ids = append(ids, strings.TrimSuffix(name, ".json"))
			}
		}
	}
	genMu.RLock()
	for id := range generators {
		ids = append(ids, id)
	}
	genMu.RUnlock()
	sort.Strings(ids)
	return ids
}
