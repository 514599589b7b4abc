// Package scene wires the tile map, player, motion, ray caster, proximity
// detector and minimap into one per-tick pipeline, and owns the lifecycle of
// everything attached to it.
package scene

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"nise/internal/input"
	"nise/internal/level"
	"nise/internal/minimap"
	"nise/internal/player"
	"nise/internal/proximity"
	"nise/internal/raycast"
	"nise/internal/system"
	"nise/internal/tilemap"
)

var (
	ErrDetached  = errors.New("scene detached")
	ErrBadConfig = errors.New("bad scene config")
	ErrRunning   = errors.New("scene scheduler already running")
)

// Surface accepts vertical strip fills. Strips span rows [y0, y1).
type Surface interface {
	Size() (width, height int)
	FillColumn(x, y0, y1 int, c color.RGBA)
}

// Expirer is implemented by input sources that must be polled once per tick,
// such as the terminal key holder.
type Expirer interface {
	Expire(now time.Time)
}

// Frame summarizes one tick.
type Frame struct {
	Seq     uint64
	Width   int
	Height  int
	Move    system.MoveResult
	Player  player.State
	Centre  raycast.Hit
	Gaze    proximity.Event // gaze mode only
	Events  []proximity.Event
	Minimap minimap.Schematic
}

// Scene is one running instance of a level. Create a fresh Scene for every
// visit; nothing is shared between scenes.
type Scene struct {
	mu        sync.Mutex
	m         *tilemap.TileMap
	lookup    proximity.Lookup
	cfg       Config
	log       *slog.Logger
	shader    *raycast.Shader
	player    player.State
	input     *input.State
	motion    system.Motion
	detector  *proximity.Detector
	hits      []raycast.Hit
	seq       uint64
	started   time.Time
	now       func() time.Time
	listeners []func(proximity.Event)
	releases  []func()
	expirers  []Expirer
	running   bool
	detached  bool
	done      chan struct{}
}

// New creates a scene over m. lookup resolves tagged cells to content and
// may be nil.
func New(m *tilemap.TileMap, lookup proximity.Lookup, cfg Config) (*Scene, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil tile map", ErrBadConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sx, sy := int(cfg.Start.X), int(cfg.Start.Y)
	if cfg.Start.X < 0 || cfg.Start.Y < 0 || !m.IsWalkable(sx, sy) {
		return nil, fmt.Errorf("%w: start (%g,%g) is not walkable", ErrBadConfig, cfg.Start.X, cfg.Start.Y)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	shader := cfg.Shader
	if shader == nil {
		shader = raycast.NewShader()
	}
	s := &Scene{
		m:        m,
		lookup:   lookup,
		cfg:      cfg,
		log:      log,
		shader:   shader,
		player:   player.New(cfg.Start.X, cfg.Start.Y, cfg.Start.DirX, cfg.Start.DirY, cfg.FOVPlaneLength, cfg.MoveSpeed, cfg.RotSpeed),
		input:    input.NewState(),
		motion:   system.Motion{SolidTags: cfg.ProximityMode == proximity.Gaze},
		detector: proximity.NewDetector(cfg.ProximityMode, lookup, cfg.GazeDistance, log),
		now:      time.Now,
		done:     make(chan struct{}),
	}
	s.started = s.now()
	return s, nil
}

// NewForLevel creates a scene for l, overriding base with the level's
// spawn, mode and colors.
func NewForLevel(l *level.Level, base Config) (*Scene, error) {
	s, err := New(l.Map, l.Lookup(), ForLevel(l, base))
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", l.ID, err)
	}
	return s, nil
}

// OnProximityEvent registers fn for proximity events. Listeners run on the
// goroutine calling RenderFrame, after the frame is drawn.
func (s *Scene) OnProximityEvent(fn func(proximity.Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return
	}
	s.listeners = append(s.listeners, fn)
}

// AttachInput starts src delivering into the scene's key state. The source
// is released by Detach.
func (s *Scene) AttachInput(src input.Source) error {
	s.mu.Lock()
	if s.detached {
		s.mu.Unlock()
		return ErrDetached
	}
	s.mu.Unlock()

	release := src.Attach(s.input)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		// Detached while attaching.
		if release != nil {
			release()
		}
		return ErrDetached
	}
	if release != nil {
		s.releases = append(s.releases, release)
	}
	if e, ok := src.(Expirer); ok {
		s.expirers = append(s.expirers, e)
	}
	s.log.Debug("input attached", "source", fmt.Sprintf("%T", src))
	return nil
}

// Detach releases every input source and listener and stops the scheduler.
// It is safe to call more than once.
func (s *Scene) Detach() {
	s.mu.Lock()
	if s.detached {
		s.mu.Unlock()
		return
	}
	s.detached = true
	releases := s.releases
	s.releases = nil
	s.listeners = nil
	s.expirers = nil
	frames := s.seq
	close(s.done)
	s.mu.Unlock()

	for _, release := range releases {
		release()
	}
	s.input.Clear()
	s.log.Info("scene detached", "frames", frames)
}

// Detached reports whether Detach has been called.
func (s *Scene) Detached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detached
}

// Done is closed by Detach.
func (s *Scene) Done() <-chan struct{} { return s.done }

// Input returns the key state sources write into.
func (s *Scene) Input() *input.State { return s.input }

// Player returns a copy of the current pose.
func (s *Scene) Player() player.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

// Map returns the scene's tile map.
func (s *Scene) Map() *tilemap.TileMap { return s.m }

// Config returns the configuration the scene was built with.
func (s *Scene) Config() Config { return s.cfg }

// RenderFrame runs one tick: motion, ray casting and drawing into surf,
// proximity, then the minimap. Proximity listeners are called before it
// returns. A nil surf skips drawing; the centre ray is still cast.
func (s *Scene) RenderFrame(surf Surface) (Frame, error) {
	s.mu.Lock()
	if s.detached {
		s.mu.Unlock()
		return Frame{}, ErrDetached
	}
	now := s.now()
	for _, e := range s.expirers {
		e.Expire(now)
	}

	f := Frame{Move: s.motion.Step(&s.player, s.input, s.m)}
	if surf != nil {
		f.Width, f.Height = surf.Size()
	}
	if f.Width > 0 && f.Height > 0 {
		s.hits = raycast.CastColumns(&s.player, s.m, f.Width, s.hits)
		s.draw(surf, f.Height, now.Sub(s.started).Seconds())
		f.Centre = s.hits[f.Width/2]
	} else {
		f.Centre = raycast.Cast(&s.player, s.m, 0)
	}

	if ev, ok := s.detector.Check(&s.player, s.m, f.Centre); ok {
		if s.cfg.ProximityMode == proximity.Gaze {
			f.Gaze = ev
		}
		f.Events = append(f.Events, ev)
		if ev.Kind == proximity.KindPortal {
			s.log.Info("portal entered", "id", ev.ID)
		}
	}
	f.Minimap = minimap.Project(s.m, &s.player, minimap.Options{Lookup: s.lookup})
	s.seq++
	f.Seq = s.seq
	f.Player = s.player
	listeners := append([]func(proximity.Event){}, s.listeners...)
	s.mu.Unlock()

	for _, ev := range f.Events {
		for _, fn := range listeners {
			fn(ev)
		}
	}
	return f, nil
}

func (s *Scene) draw(surf Surface, height int, t float64) {
	for x, h := range s.hits {
		y0, y1 := raycast.Span(h.PerpDist, height)
		if y0 > 0 {
			surf.FillColumn(x, 0, y0, s.cfg.Ceiling)
		}
		surf.FillColumn(x, y0, y1, s.shader.Color(h, t))
		if y1 < height {
			surf.FillColumn(x, y1, height, s.cfg.Floor)
		}
	}
}
