// Package window hosts scenes in an ebiten window. Ebiten's update loop is
// the tick source: one RenderFrame per Update.
package window

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"nise/internal/i18n"
	"nise/internal/input"
	"nise/internal/level"
	"nise/internal/proximity"
	"nise/internal/render"
	"nise/internal/scene"
	"nise/internal/visitlog"
)

// HomeLevel is where Esc returns to.
const HomeLevel = "lobby"

// Default logical resolution; the window scales it.
const (
	DefaultWidth  = 400
	DefaultHeight = 300
)

// bindings map ebiten keys to logical controls.
var bindings = []struct {
	key ebiten.Key
	ctl input.Key
}{
	{ebiten.KeyW, input.KeyForward},
	{ebiten.KeyArrowUp, input.KeyForward},
	{ebiten.KeyS, input.KeyBackward},
	{ebiten.KeyArrowDown, input.KeyBackward},
	{ebiten.KeyA, input.KeyTurnLeft},
	{ebiten.KeyArrowLeft, input.KeyTurnLeft},
	{ebiten.KeyD, input.KeyTurnRight},
	{ebiten.KeyArrowRight, input.KeyTurnRight},
}

// keyPoller copies ebiten's key state into the attached scene each tick.
// Ebiten reports real key-up state, so no hold emulation is needed.
type keyPoller struct {
	pressed func(ebiten.Key) bool

	mu sync.Mutex
	st *input.State
}

func (p *keyPoller) Attach(st *input.State) func() {
	p.mu.Lock()
	p.st = st
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		if p.st == st {
			p.st = nil
		}
		p.mu.Unlock()
	}
}

// poll sets every bound control. A control is held when any of its keys is.
func (p *keyPoller) poll() {
	p.mu.Lock()
	st := p.st
	p.mu.Unlock()
	if st == nil {
		return
	}
	held := make(map[input.Key]bool, 4)
	for _, b := range bindings {
		held[b.ctl] = held[b.ctl] || p.pressed(b.key)
	}
	for k, down := range held {
		st.Set(k, down)
	}
}

// Options configure a Game.
type Options struct {
	Level  string
	Config scene.Config // zero means scene.DefaultConfig
	Width  int
	Height int
	Visits visitlog.Store
	Logger *slog.Logger
}

// Game implements ebiten.Game.
type Game struct {
	opts Options
	log  *slog.Logger
	keys *keyPoller
	surf *render.ImageSurface

	lvl     *level.Level
	sc      *scene.Scene
	frame   scene.Frame
	next    *portalTarget
	section *level.Section
}

type portalTarget struct {
	level, section string
}

// New loads the first level.
func New(opts Options) (*Game, error) {
	if opts.Level == "" {
		opts.Level = HomeLevel
	}
	if opts.Config.RefreshRate == 0 {
		opts.Config = scene.DefaultConfig()
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = DefaultWidth, DefaultHeight
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	g := &Game{
		opts: opts,
		log:  log,
		keys: &keyPoller{pressed: ebiten.IsKeyPressed},
		surf: render.NewImageSurface(opts.Width, opts.Height),
	}
	if err := g.load(opts.Level); err != nil {
		return nil, err
	}
	return g, nil
}

// TPS is the tick rate the window should run at.
func (g *Game) TPS() int { return max(int(g.opts.Config.RefreshRate), 1) }

// load replaces the current scene with a fresh scene of level id.
func (g *Game) load(id string) error {
	l, err := level.Load(id)
	if err != nil {
		return err
	}
	cfg := g.opts.Config
	cfg.Logger = g.log.With("level", l.ID)
	sc, err := scene.NewForLevel(l, cfg)
	if err != nil {
		return err
	}
	if err := sc.AttachInput(g.keys); err != nil {
		return err
	}
	rec := &visitlog.Recorder{Store: g.opts.Visits, Level: l.ID, Client: "window", Log: g.log}
	sc.OnProximityEvent(func(ev proximity.Event) {
		rec.Observe(ev)
		if ev.Kind != proximity.KindPortal {
			return
		}
		next, section := l.Destination(ev.ID)
		g.next = &portalTarget{level: next, section: section}
	})
	if g.sc != nil {
		g.sc.Detach()
	}
	g.lvl, g.sc, g.frame, g.next = l, sc, scene.Frame{}, nil
	return nil
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		g.sc.Detach()
		return ebiten.Termination
	}
	if g.section != nil {
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
			g.section = nil
			return g.load(g.lvl.ID)
		}
		return nil
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		if g.lvl.ID == HomeLevel {
			g.sc.Detach()
			return ebiten.Termination
		}
		return g.load(HomeLevel)
	}

	g.keys.poll()
	f, err := g.sc.RenderFrame(g.surf)
	if err != nil && !errors.Is(err, scene.ErrDetached) {
		return err
	}
	g.frame = f

	if t := g.next; t != nil {
		g.next = nil
		if t.level != "" {
			return g.load(t.level)
		}
		sec, err := level.LoadSection(t.section)
		if err != nil {
			g.log.Warn("portal has no section page", "id", t.section, "error", err)
			return nil
		}
		g.sc.Detach()
		g.section = &sec
	}
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.section != nil {
		screen.Fill(g.lvl.Ceiling())
		ebitenutil.DebugPrintAt(screen, g.pageText(), 8, 8)
		return
	}
	screen.WritePixels(g.surf.Img.Pix)

	hint := "CONTROLS_HINT"
	if g.lvl.ProximityMode == proximity.Gaze {
		hint = "CONTROLS_HINT_GAZE"
	}
	p := g.frame.Player.Pos
	ebitenutil.DebugPrintAt(screen, i18n.T("LEVEL_TITLE", g.lvl.Title)+"  "+i18n.T("POSITION", p.X(), p.Y()), 4, 4)
	ebitenutil.DebugPrintAt(screen, i18n.T(hint), 4, g.opts.Height-16)
	if ev := g.frame.Gaze; ev.Kind != proximity.KindNone {
		if pt, ok := g.lvl.Point(ev.ID); ok {
			text := i18n.T("LOOKING_AT", pt.Title, pt.Text)
			ebitenutil.DebugPrintAt(screen, strings.Join(render.Wrap(text, g.opts.Width/6-2), "\n"), 8, g.opts.Height/2+20)
		}
	}
}

func (g *Game) pageText() string {
	s := g.section
	cols := max(g.opts.Width/6-2, 10)
	var sb strings.Builder
	fmt.Fprintln(&sb, s.Title)
	if s.Subtitle != "" {
		fmt.Fprintln(&sb, s.Subtitle)
	}
	sb.WriteString("\n")
	for _, para := range s.Body {
		for _, ln := range render.Wrap(para, cols) {
			fmt.Fprintln(&sb, ln)
		}
		sb.WriteString("\n")
	}
	if s.Link != "" {
		fmt.Fprintln(&sb, s.Link)
	}
	sb.WriteString("\n" + i18n.T("SECTION_BACK"))
	return sb.String()
}

// Layout implements ebiten.Game with a fixed logical size.
func (g *Game) Layout(int, int) (int, int) {
	return g.opts.Width, g.opts.Height
}

// Close detaches the running scene.
func (g *Game) Close() {
	if g.sc != nil {
		g.sc.Detach()
	}
}
