package scene

import (
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"time"

	"nise/internal/level"
	"nise/internal/proximity"
	"nise/internal/raycast"
)

// Start is the initial pose.
type Start struct {
	X, Y       float64
	DirX, DirY float64
}

// Config tunes a scene. Motion speeds are per tick, so perceived speed
// follows the refresh rate.
type Config struct {
	MoveSpeed      float64
	RotSpeed       float64
	FOVPlaneLength float64
	ProximityMode  proximity.Mode
	GazeDistance   float64
	RefreshRate    float64 // ticks per second

	Start   Start
	Shader  *raycast.Shader // nil uses raycast.NewShader
	Ceiling color.RGBA
	Floor   color.RGBA
	Logger  *slog.Logger
}

// DefaultConfig returns the lobby tuning: 0.05 cells and 0.03 rad per tick at
// 60 Hz, a 0.66 camera plane, footstep proximity and a 3-cell gaze range.
func DefaultConfig() Config {
	return Config{
		MoveSpeed:      0.05,
		RotSpeed:       0.03,
		FOVPlaneLength: 0.66,
		ProximityMode:  proximity.Footstep,
		GazeDistance:   3.0,
		RefreshRate:    60,
		Start:          Start{X: 8, Y: 8, DirX: -1, DirY: 0},
		Ceiling:        raycast.DefaultCeiling,
		Floor:          raycast.DefaultFloor,
	}
}

// ForLevel returns base adjusted to l: spawn, proximity mode, shader and
// backdrop colors.
func ForLevel(l *level.Level, base Config) Config {
	cfg := base
	cfg.Start = Start{X: l.Spawn.X, Y: l.Spawn.Y, DirX: l.Spawn.DirX, DirY: l.Spawn.DirY}
	cfg.ProximityMode = l.ProximityMode
	cfg.Shader = l.Shader()
	cfg.Ceiling = l.Ceiling()
	cfg.Floor = l.Floor()
	return cfg
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// minDirLength is the shortest start direction that still normalizes to a
// unit vector.
const minDirLength = 1e-6

// Validate reports the first out-of-range field, wrapped in ErrBadConfig.
func (c Config) Validate() error {
	switch {
	case !positive(c.MoveSpeed):
		return fmt.Errorf("%w: move speed %g", ErrBadConfig, c.MoveSpeed)
	case !positive(c.RotSpeed):
		return fmt.Errorf("%w: rotation speed %g", ErrBadConfig, c.RotSpeed)
	case !positive(c.FOVPlaneLength):
		return fmt.Errorf("%w: camera plane length %g", ErrBadConfig, c.FOVPlaneLength)
	case !positive(c.GazeDistance):
		return fmt.Errorf("%w: gaze distance %g", ErrBadConfig, c.GazeDistance)
	case !positive(c.RefreshRate) || c.RefreshRate > 1000:
		return fmt.Errorf("%w: refresh rate %g", ErrBadConfig, c.RefreshRate)
	case c.ProximityMode != proximity.Footstep && c.ProximityMode != proximity.Gaze:
		return fmt.Errorf("%w: proximity mode %d", ErrBadConfig, c.ProximityMode)
	case !finite(c.Start.X) || !finite(c.Start.Y):
		return fmt.Errorf("%w: start position (%g,%g)", ErrBadConfig, c.Start.X, c.Start.Y)
	case !finite(c.Start.DirX) || !finite(c.Start.DirY):
		return fmt.Errorf("%w: start direction (%g,%g)", ErrBadConfig, c.Start.DirX, c.Start.DirY)
	case math.Hypot(c.Start.DirX, c.Start.DirY) < minDirLength:
		return fmt.Errorf("%w: zero start direction", ErrBadConfig)
	}
	return nil
}

// Interval is the time between ticks.
func (c Config) Interval() time.Duration {
	return time.Duration(float64(time.Second) / c.RefreshRate)
}
