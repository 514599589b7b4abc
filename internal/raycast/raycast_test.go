package raycast

import (
	"image/color"
	"math"
	"math/rand"
	"testing"

	"nise/internal/player"
	"nise/internal/tilemap"
)

func borderedRoom(w, h int) [][]int {
	rows := make([][]int, h)
	for y := range rows {
		rows[y] = make([]int, w)
		for x := range rows[y] {
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				rows[y][x] = tilemap.Wall
			}
		}
	}
	return rows
}

func TestCameraX(t *testing.T) {
	cases := []struct {
		x, w int
		want float64
	}{
		{0, 800, -1},
		{400, 800, 0},
		{799, 800, 2*799.0/800 - 1},
	}
	for _, c := range cases {
		if got := CameraX(c.x, c.w); math.Abs(got-c.want) > 1e-12 {
			t.Errorf("CameraX(%d,%d) = %g, want %g", c.x, c.w, got, c.want)
		}
	}
}

// Straight-ahead distance from a cell centre to a wall d cells away equals
// d, regardless of how many columns fan out around it.
func TestPerpendicularDistanceStraightAhead(t *testing.T) {
	m := tilemap.MustNew(borderedRoom(16, 16))
	cases := []struct {
		name       string
		x, y       float64
		dirX, dirY float64
		want       float64
	}{
		{"west", 8.5, 8.5, -1, 0, 7.5},
		{"east", 8.5, 8.5, 1, 0, 6.5},
		{"north", 8.5, 8.5, 0, -1, 7.5},
		{"south", 8.5, 8.5, 0, 1, 6.5},
		{"from cell edge", 8, 8, -1, 0, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := player.New(tc.x, tc.y, tc.dirX, tc.dirY, 0.66, 0.05, 0.03)
			h := Cast(&p, m, 0)
			if math.Abs(h.PerpDist-tc.want) > 1e-9 {
				t.Fatalf("PerpDist = %g, want %g", h.PerpDist, tc.want)
			}
			if h.Code != tilemap.Wall {
				t.Fatalf("Code = %d, want wall", h.Code)
			}
		})
	}
}

// A flat wall facing the viewer has the same perpendicular distance in every
// column: the fisheye correction.
func TestFlatWallHasConstantPerpDist(t *testing.T) {
	m := tilemap.MustNew(borderedRoom(32, 32))
	p := player.New(16.5, 16.5, -1, 0, 0.66, 0.05, 0.03)
	hits := CastColumns(&p, m, 64, nil)
	for x, h := range hits {
		if h.Side != SideX {
			continue
		}
		if math.Abs(h.PerpDist-15.5) > 1e-9 {
			t.Fatalf("column %d: PerpDist = %g, want 15.5", x, h.PerpDist)
		}
	}
}

func TestCorridorCentreColumn(t *testing.T) {
	const length = 10
	rows := make([][]int, 3)
	for y := range rows {
		rows[y] = make([]int, length+2)
		for x := range rows[y] {
			if y != 1 || x == 0 || x == length+1 {
				rows[y][x] = tilemap.Wall
			}
		}
	}
	m := tilemap.MustNew(rows)
	p := player.New(1, 1.5, 1, 0, 0.66, 0.05, 0.03)
	// Column width/2 has cameraX 0 for even widths.
	for _, width := range []int{2, 80, 800} {
		h := CastColumns(&p, m, width, nil)[width/2]
		if math.Abs(h.PerpDist-length) > 1e-9 {
			t.Fatalf("width %d: centre PerpDist = %g, want %d", width, h.PerpDist, length)
		}
		if h.CellX != length+1 {
			t.Fatalf("width %d: centre hit cell x = %d, want %d", width, h.CellX, length+1)
		}
	}
}

func TestSideReflectsFaceStruck(t *testing.T) {
	m := tilemap.MustNew(borderedRoom(10, 10))
	p := player.New(5.5, 5.5, 0, 1, 0.66, 0.05, 0.03)
	if h := Cast(&p, m, 0); h.Side != SideY {
		t.Fatalf("looking south should strike a y-facing wall, got side %d", h.Side)
	}
	p = player.New(5.5, 5.5, 1, 0, 0.66, 0.05, 0.03)
	if h := Cast(&p, m, 0); h.Side != SideX {
		t.Fatalf("looking east should strike an x-facing wall, got side %d", h.Side)
	}
}

func TestCastHitsTaggedCell(t *testing.T) {
	rows := borderedRoom(16, 16)
	rows[8][3] = 6
	m := tilemap.MustNew(rows)
	p := player.New(8.5, 8.5, -1, 0, 0.66, 0.05, 0.03)
	h := Cast(&p, m, 0)
	if h.Code != 6 || h.CellX != 3 || h.CellY != 8 {
		t.Fatalf("hit = %+v, want code 6 at (3,8)", h)
	}
	if math.Abs(h.PerpDist-4.5) > 1e-9 {
		t.Fatalf("PerpDist = %g, want 4.5", h.PerpDist)
	}
}

// Every ray from an empty cell terminates within width+height steps.
func TestCastTerminatesWithinBound(t *testing.T) {
	const w, h = 24, 17
	rows := borderedRoom(w, h)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 40; i++ {
		rows[1+rng.Intn(h-2)][1+rng.Intn(w-2)] = tilemap.Wall
	}
	m := tilemap.MustNew(rows)
	for i := 0; i < 2000; i++ {
		x := 1 + rng.Float64()*float64(w-2)
		y := 1 + rng.Float64()*float64(h-2)
		if m.At(int(x), int(y)) != tilemap.Empty {
			continue
		}
		a := rng.Float64() * 2 * math.Pi
		p := player.New(x, y, math.Cos(a), math.Sin(a), 0.66, 0.05, 0.03)
		hit := Cast(&p, m, rng.Float64()*2-1)
		if hit.Steps > w+h {
			t.Fatalf("cast from (%g,%g) took %d steps", x, y, hit.Steps)
		}
		if hit.PerpDist < 0 {
			t.Fatalf("negative PerpDist %g", hit.PerpDist)
		}
	}
}

// A map with no border still terminates because out-of-range reads as solid.
func TestCastOpenMapTerminates(t *testing.T) {
	m := tilemap.MustNew([][]int{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}})
	p := player.New(1.5, 1.5, 0, 1, 0.66, 0.05, 0.03)
	h := Cast(&p, m, 0)
	if h.CellY != 3 || h.Code != tilemap.OutOfBounds {
		t.Fatalf("expected out-of-bounds hit at y=3, got %+v", h)
	}
}

func TestCastZeroDirectionPanics(t *testing.T) {
	m := tilemap.MustNew(borderedRoom(4, 4))
	p := player.New(1.5, 1.5, 1, 0, 0.66, 0.05, 0.03)
	p.Dir = p.Dir.Mul(0)
	p.Plane = p.Plane.Mul(0)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for zero ray direction")
		}
	}()
	Cast(&p, m, 0)
}

func TestSpan(t *testing.T) {
	cases := []struct {
		name   string
		perp   float64
		height int
		y0, y1 int
	}{
		{"one unit fills screen", 1, 600, 0, 600},
		{"very close clamps", 0.1, 600, 0, 600},
		{"two units", 2, 600, 150, 450},
		{"far", 10, 600, 270, 330},
		{"zero distance", 0, 200, 0, 200},
		{"NaN distance", math.NaN(), 200, 0, 200},
		{"infinitely far", math.Inf(1), 200, 100, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			y0, y1 := Span(tc.perp, tc.height)
			if y0 != tc.y0 || y1 != tc.y1 {
				t.Fatalf("Span(%g,%d) = [%d,%d), want [%d,%d)", tc.perp, tc.height, y0, y1, tc.y0, tc.y1)
			}
		})
	}
}

func TestShaderColor(t *testing.T) {
	s := NewShader()
	s.Tagged[5] = color.RGBA{0x4e, 0xcd, 0xc4, 0xff}
	s.Pulse = false

	if got := s.Color(Hit{Code: tilemap.Wall, Side: SideX}, 0); got != DefaultWall {
		t.Errorf("wall x-side = %v, want %v", got, DefaultWall)
	}
	wantDark := color.RGBA{0x9c, 0x9c, 0x9c, 0xff} // floor(224*0.7) = 156
	if got := s.Color(Hit{Code: tilemap.Wall, Side: SideY}, 0); got != wantDark {
		t.Errorf("wall y-side = %v, want %v", got, wantDark)
	}
	if got := s.Color(Hit{Code: 5}, 0); got != s.Tagged[5] {
		t.Errorf("tagged = %v, want %v", got, s.Tagged[5])
	}
}

func TestPulseRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		v := PulseAt(float64(i) * 0.013)
		if v < 0.4-1e-12 || v > 1.0+1e-12 {
			t.Fatalf("PulseAt out of range: %g", v)
		}
	}
	s := NewShader()
	s.Tagged[7] = color.RGBA{100, 100, 100, 255}
	// sin(3t) = 1 at t = π/6: full brightness.
	if got := s.Color(Hit{Code: 7}, math.Pi/6); got.R != 100 {
		t.Errorf("peak pulse R = %d, want 100", got.R)
	}
}
