package generate

import (
	"errors"
	"fmt"
	"time"

	"nise/internal/level"
	"nise/internal/proximity"
	"nise/internal/tilemap"
)

// AnnexID is the id the daily generated gallery is registered under.
const AnnexID = "annex"

var ErrNoRooms = errors.New("generate: plan has no rooms")

func init() {
	level.Register(AnnexID, Annex)
}

// Annex builds today's gallery: a fresh floor plan each UTC day, hung with
// the museum's artworks.
func Annex() (*level.Level, error) {
	museum, err := level.Load("museum")
	if err != nil {
		return nil, err
	}
	var works []Work
	for _, p := range museum.Points {
		if p.Kind == proximity.KindArtwork {
			works = append(works, Work{Point: p, Code: museum.Map.At(p.X, p.Y)})
		}
	}
	day := time.Now().UTC().Truncate(24 * time.Hour).Unix()
	return Gallery(AnnexID, "The Annex", DefaultConfig(day), works, museum.Colors)
}

// Work is a point to hang, with the tag code its cell should carry. A Code
// below tilemap.Tagged gets a fresh code.
type Work struct {
	Point level.Point
	Code  int
}

// Gallery generates a gaze-mode level from cfg and hangs works on the walls
// of its rooms, one work per cell, spreading them over the rooms in order. The player spawns in the first
// room facing east.
func Gallery(id, title string, cfg *Config, works []Work, colors level.Colors) (*level.Level, error) {
	p := Generate(cfg)
	if len(p.Rooms) == 0 {
		return nil, ErrNoRooms
	}
	codes := workCodes(works)
	var points []level.Point
	for i, w := range works {
		x, y, ok := hang(p, p.Rooms[i%len(p.Rooms)])
		if !ok {
			// Room walls are full; try every room before giving up on the work.
			for _, r := range p.Rooms {
				if x, y, ok = hang(p, r); ok {
					break
				}
			}
		}
		if !ok {
			break
		}
		p.Grid[y][x] = codes[i]
		pt := w.Point
		pt.X, pt.Y = x, y
		points = append(points, pt)
	}

	cx, cy := p.Rooms[0].Center()
	l := &level.Level{
		ID:     id,
		Title:  title,
		Mode:   proximity.Gaze.String(),
		Colors: colors,
		Spawn:  level.Spawn{X: float64(cx) + 0.5, Y: float64(cy) + 0.5, DirX: 1},
		Grid:   p.Grid,
		Points: points,
	}
	if err := l.Init(); err != nil {
		return nil, fmt.Errorf("generate %s: %w", id, err)
	}
	return l, nil
}

// workCodes resolves the tag code of every work.
func workCodes(works []Work) []int {
	codes := make([]int, len(works))
	next := tilemap.Tagged
	for i, w := range works {
		if w.Code >= tilemap.Tagged {
			codes[i] = w.Code
			next = max(next, w.Code+1)
		}
	}
	for i := range codes {
		if codes[i] == 0 {
			codes[i] = next
			next++
		}
	}
	return codes
}

// hang picks a plain wall cell bordering r that faces into the room,
// preferring the middle of the north wall.
func hang(p *Plan, r Rect) (int, int, bool) {
	cx, cy := r.Center()
	candidates := [][2]int{
		{cx, r.Y1 - 1}, {cx, r.Y2 + 1}, {r.X1 - 1, cy}, {r.X2 + 1, cy},
	}
	for x := r.X1; x <= r.X2; x++ {
		candidates = append(candidates, [2]int{x, r.Y1 - 1}, [2]int{x, r.Y2 + 1})
	}
	for y := r.Y1; y <= r.Y2; y++ {
		candidates = append(candidates, [2]int{r.X1 - 1, y}, [2]int{r.X2 + 1, y})
	}
	for _, c := range candidates {
		if p.InBounds(c[0], c[1]) && p.Grid[c[1]][c[0]] == tilemap.Wall {
			return c[0], c[1], true
		}
	}
	return 0, 0, false
}
