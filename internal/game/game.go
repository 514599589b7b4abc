// Package game hosts scenes on a tcell screen: it pumps terminal events into
// the running scene, draws the HUD, minimap and info panels over each frame,
// and moves between levels and section pages when a portal fires.
package game

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"nise/internal/i18n"
	"nise/internal/input"
	"nise/internal/level"
	"nise/internal/proximity"
	"nise/internal/render"
	"nise/internal/scene"
	"nise/internal/visitlog"
)

// Smallest screen the view is drawn on.
const (
	MinWidth  = 40
	MinHeight = 12
)

// HomeLevel is where Esc returns to and where a session starts by default.
const HomeLevel = "lobby"

// Options configure a Game.
type Options struct {
	Level      string         // first level; HomeLevel when empty
	Config     scene.Config   // base tuning; zero means scene.DefaultConfig
	Visits     visitlog.Store // nil disables the visit log
	Client     string         // recorded with each visit
	Logger     *slog.Logger
	HoldWindow time.Duration // key hold emulation; zero means input.DefaultHoldWindow
}

// outcome is how a level was left.
type outcome struct {
	quit    bool
	level   string // next level
	section string // page to show before returning to the same level
}

// Game is the terminal host for one visitor.
type Game struct {
	screen   tcell.Screen
	renderer *render.Renderer
	opts     Options
	log      *slog.Logger
	keys     *keySource
	events   chan tcell.Event
	stop     chan struct{}
	resized  atomic.Bool
}

// NewTerminal creates a Game on the process's terminal.
func NewTerminal(opts Options) (*Game, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	return New(screen, opts), nil
}

// New creates a Game on an initialized screen. Run finalizes the screen.
func New(screen tcell.Screen, opts Options) *Game {
	if opts.Level == "" {
		opts.Level = HomeLevel
	}
	if opts.Config.RefreshRate == 0 {
		opts.Config = scene.DefaultConfig()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Game{
		screen:   screen,
		renderer: render.NewRenderer(screen),
		opts:     opts,
		log:      log,
		keys:     newKeySource(opts.HoldWindow),
		events:   make(chan tcell.Event, 32),
		stop:     make(chan struct{}),
	}
}

// Run plays until the visitor quits or ctx is cancelled. Quitting returns
// nil; cancellation returns ctx.Err().
func (g *Game) Run(ctx context.Context) error {
	defer g.screen.Fini()
	defer close(g.stop)
	go g.pollEvents()

	id := g.opts.Level
	for {
		out, err := g.play(ctx, id)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch {
		case out.quit:
			return nil
		case out.level != "":
			g.log.Info("level change", "from", id, "to", out.level)
			id = out.level
		case out.section != "":
			if g.showPage(ctx, out.section) {
				return ctx.Err()
			}
		}
	}
}

// pollEvents forwards screen events until the screen is finalized.
func (g *Game) pollEvents() {
	for {
		ev := g.screen.PollEvent()
		if ev == nil {
			close(g.events)
			return
		}
		select {
		case g.events <- ev:
		case <-g.stop:
			return
		}
	}
}

// play runs one fresh scene of level id until it is left.
func (g *Game) play(ctx context.Context, id string) (outcome, error) {
	l, err := level.Load(id)
	if err != nil {
		return outcome{}, err
	}
	cfg := g.opts.Config
	cfg.Logger = g.log.With("level", l.ID)
	sc, err := scene.NewForLevel(l, cfg)
	if err != nil {
		return outcome{}, err
	}
	if err := sc.AttachInput(g.keys); err != nil {
		return outcome{}, err
	}

	next := make(chan outcome, 1)
	leave := func(o outcome) {
		select {
		case next <- o:
		default:
		}
		sc.Detach()
	}
	rec := &visitlog.Recorder{Store: g.opts.Visits, Level: l.ID, Client: g.opts.Client, Log: g.log}
	sc.OnProximityEvent(func(ev proximity.Event) {
		rec.Observe(ev)
		if o, ok := portalOutcome(l, ev); ok {
			leave(o)
		}
	})

	palette := l.Shader().Tagged
	g.renderer.Clear()
	sched := &scene.Scheduler{
		Scene:   sc,
		Surface: g.renderer,
		OnFrame: func(f scene.Frame) { g.drawFrame(l, palette, f) },
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- sched.Run(runCtx) }()

	events := g.events
	for {
		select {
		case err := <-done:
			if errors.Is(err, scene.ErrDetached) {
				err = nil
			}
			if ctx.Err() != nil {
				return outcome{quit: true}, nil
			}
			if err != nil {
				return outcome{}, err
			}
			select {
			case o := <-next:
				return o, nil
			default:
				return outcome{quit: true}, nil
			}
		case ev, ok := <-events:
			if !ok {
				events = nil
				leave(outcome{quit: true})
				continue
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				g.screen.Sync()
				g.resized.Store(true)
			case *tcell.EventKey:
				act, k := keyToAction(ev)
				switch act {
				case ActionQuit:
					leave(outcome{quit: true})
				case ActionBack:
					if l.ID == HomeLevel {
						leave(outcome{quit: true})
					} else {
						leave(outcome{level: HomeLevel})
					}
				case ActionControl:
					g.keys.Press(k, time.Now())
				}
			}
		}
	}
}

// portalOutcome maps a portal event to the level or page it leads to.
func portalOutcome(l *level.Level, ev proximity.Event) (outcome, bool) {
	if ev.Kind != proximity.KindPortal || ev.ID == "" {
		return outcome{}, false
	}
	next, section := l.Destination(ev.ID)
	return outcome{level: next, section: section}, true
}

// drawFrame runs on the scheduler goroutine after the scene has drawn into
// the renderer.
func (g *Game) drawFrame(l *level.Level, palette map[int]color.RGBA, f scene.Frame) {
	if g.resized.Swap(false) {
		g.renderer.Resize()
		g.renderer.Clear()
		return
	}
	lay := g.renderer.Layout()
	if lay.Screen.W < MinWidth || lay.Screen.H < MinHeight {
		g.renderer.Clear()
		msg := i18n.T("TERMINAL_TOO_SMALL", MinWidth, MinHeight)
		g.renderer.DrawCentered(lay.Screen.H/2, msg, tcell.StyleDefault.Foreground(render.ColorHUDText))
		g.screen.Show()
		return
	}

	g.renderer.Present()
	g.renderer.DrawMinimap(f.Minimap, palette)
	if f.Gaze.Kind != proximity.KindNone {
		if pt, ok := l.Point(f.Gaze.ID); ok {
			g.renderer.DrawPanel(render.Panel{Kicker: kindLabel(pt.Kind), Title: pt.Title, Text: pt.Text})
		}
	}
	hint := "CONTROLS_HINT"
	if l.ProximityMode == proximity.Gaze {
		hint = "CONTROLS_HINT_GAZE"
	}
	g.renderer.DrawHUD(render.HUD{
		Title:  i18n.T("LEVEL_TITLE", l.Title),
		Status: i18n.T("POSITION", f.Player.Pos.X(), f.Player.Pos.Y()),
		Hint:   i18n.T(hint),
	})
	g.screen.Show()
}

// showPage displays a section until the visitor returns. It reports whether
// the session should end.
func (g *Game) showPage(ctx context.Context, id string) bool {
	sec, err := level.LoadSection(id)
	if err != nil {
		g.log.Warn("portal has no section page", "id", id, "error", err)
		return false
	}
	g.log.Info("section opened", "id", id)
	for {
		if g.resized.Swap(false) {
			g.renderer.Resize()
		}
		g.renderer.DrawPage(sec, i18n.T("SECTION_BACK"))
		g.screen.Show()

		select {
		case <-ctx.Done():
			return true
		case ev, ok := <-g.events:
			if !ok {
				return true
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				g.screen.Sync()
				g.resized.Store(true)
			case *tcell.EventKey:
				switch act, _ := keyToAction(ev); act {
				case ActionSelect, ActionBack:
					return false
				case ActionQuit:
					return true
				}
			}
		}
	}
}

func kindLabel(k proximity.Kind) string {
	switch k {
	case proximity.KindPortal:
		return i18n.T("KIND_PORTAL")
	case proximity.KindInfo:
		return i18n.T("KIND_INFO")
	case proximity.KindArtwork:
		return i18n.T("KIND_ARTWORK")
	}
	return ""
}

var _ input.Source = (*keySource)(nil)
var _ scene.Expirer = (*keySource)(nil)
