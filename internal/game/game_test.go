package game

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"nise/internal/input"
	"nise/internal/level"
	"nise/internal/proximity"
	"nise/internal/scene"
	"nise/internal/visitlog"
)

func newSimScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	ss := tcell.NewSimulationScreen("UTF-8")
	if err := ss.Init(); err != nil {
		t.Fatalf("SimulationScreen.Init: %v", err)
	}
	// Init resets the simulation screen to 80x25.
	ss.SetSize(w, h)
	return ss
}

func TestKeyToAction(t *testing.T) {
	cases := []struct {
		name string
		ev   *tcell.EventKey
		act  Action
		key  input.Key
	}{
		{"up arrow", tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), ActionControl, input.KeyForward},
		{"down arrow", tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone), ActionControl, input.KeyBackward},
		{"left arrow", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), ActionControl, input.KeyTurnLeft},
		{"right arrow", tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), ActionControl, input.KeyTurnRight},
		{"w", tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone), ActionControl, input.KeyForward},
		{"S upper", tcell.NewEventKey(tcell.KeyRune, 'S', tcell.ModNone), ActionControl, input.KeyBackward},
		{"a", tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone), ActionControl, input.KeyTurnLeft},
		{"d", tcell.NewEventKey(tcell.KeyRune, 'd', tcell.ModNone), ActionControl, input.KeyTurnRight},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), ActionSelect, input.KeySelect},
		{"space", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), ActionSelect, input.KeySelect},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), ActionBack, input.KeyNone},
		{"q", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), ActionQuit, input.KeyQuit},
		{"ctrl-c", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), ActionQuit, input.KeyQuit},
		{"unbound rune", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), ActionNone, input.KeyNone},
		{"unbound key", tcell.NewEventKey(tcell.KeyF5, 0, tcell.ModNone), ActionNone, input.KeyNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			act, k := keyToAction(tc.ev)
			if act != tc.act || k != tc.key {
				t.Errorf("keyToAction = (%d, %v), want (%d, %v)", act, k, tc.act, tc.key)
			}
		})
	}
}

func TestKeySourceHoldsUntilWindowExpires(t *testing.T) {
	ks := newKeySource(100 * time.Millisecond)
	st := input.NewState()
	t0 := time.Unix(0, 0)

	ks.Press(input.KeyForward, t0) // not attached: dropped
	if st.Len() != 0 {
		t.Fatal("press before attach reached the state")
	}

	release := ks.Attach(st)
	ks.Press(input.KeyForward, t0)
	ks.Expire(t0.Add(50 * time.Millisecond))
	if !st.Held(input.KeyForward) {
		t.Fatal("key released inside the hold window")
	}
	ks.Expire(t0.Add(100 * time.Millisecond))
	if st.Held(input.KeyForward) {
		t.Fatal("key still held after the window")
	}

	ks.Press(input.KeyTurnLeft, t0)
	release()
	release()
	if st.Held(input.KeyTurnLeft) {
		t.Fatal("release did not clear held keys")
	}
	ks.Press(input.KeyTurnLeft, t0)
	if st.Held(input.KeyTurnLeft) {
		t.Fatal("press after release reached the old state")
	}
}

func TestPortalOutcome(t *testing.T) {
	l, err := level.Load("lobby")
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name string
		ev   proximity.Event
		want outcome
		ok   bool
	}{
		{"section portal", proximity.Event{Kind: proximity.KindPortal, ID: "projects"}, outcome{section: "projects"}, true},
		{"level portal", proximity.Event{Kind: proximity.KindPortal, ID: "nise"}, outcome{level: "museum"}, true},
		{"info is not a portal", proximity.Event{Kind: proximity.KindInfo, ID: "about-nise"}, outcome{}, false},
		{"nothing", proximity.Event{}, outcome{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := portalOutcome(l, tc.ev)
			if got != tc.want || ok != tc.ok {
				t.Errorf("portalOutcome = %+v, %v; want %+v, %v", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestDrawFrameShowsHUDAndPanel(t *testing.T) {
	ss := newSimScreen(t, 100, 40)
	defer ss.Fini()
	g := New(ss, Options{})

	l, err := level.Load("museum")
	if err != nil {
		t.Fatal(err)
	}
	pt, ok := l.Point("about-nise")
	if !ok {
		t.Fatal("museum has no about-nise plaque")
	}
	cfg := g.opts.Config
	cfg.Start = scene.Start{X: float64(pt.X) + 0.5, Y: float64(pt.Y) - 1.5, DirX: 0, DirY: 1}
	sc, err := scene.New(l.Map, l.Lookup(), withLevel(l, cfg))
	if err != nil {
		t.Fatal(err)
	}
	defer sc.Detach()

	f, err := sc.RenderFrame(g.renderer)
	if err != nil {
		t.Fatal(err)
	}
	if f.Gaze.ID != "about-nise" {
		t.Fatalf("gaze = %+v, want about-nise", f.Gaze)
	}
	g.drawFrame(l, l.Shader().Tagged, f)

	if !screenContains(ss, 100, 40, pt.Title) {
		t.Error("info panel title not drawn")
	}
	if !screenContains(ss, 100, 40, l.Title) {
		t.Error("HUD title not drawn")
	}
	if !screenContains(ss, 100, 40, "esc to leave") {
		t.Error("gaze controls hint not drawn")
	}
}

// withLevel applies the level's mode and colors but keeps cfg's start.
func withLevel(l *level.Level, cfg scene.Config) scene.Config {
	start := cfg.Start
	cfg = scene.ForLevel(l, cfg)
	cfg.Start = start
	return cfg
}

func TestDrawFrameTooSmall(t *testing.T) {
	ss := newSimScreen(t, 30, 8)
	defer ss.Fini()
	g := New(ss, Options{})
	l, err := level.Load("lobby")
	if err != nil {
		t.Fatal(err)
	}
	g.drawFrame(l, nil, scene.Frame{})
	if !screenContains(ss, 30, 8, "too small") {
		t.Error("too-small notice not drawn")
	}
}

func TestShowPageReturnsOnEnter(t *testing.T) {
	ss := newSimScreen(t, 80, 24)
	defer ss.Fini()
	g := New(ss, Options{})

	g.events <- tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)
	if quit := g.showPage(context.Background(), "posts"); quit {
		t.Fatal("enter should return to the level")
	}
	sec, _ := level.LoadSection("posts")
	if !screenContains(ss, 80, 24, sec.Title) {
		t.Error("section title not drawn")
	}

	g.events <- tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)
	if quit := g.showPage(context.Background(), "posts"); !quit {
		t.Fatal("q should end the session")
	}

	if quit := g.showPage(context.Background(), "no-such-section"); quit {
		t.Fatal("unknown section should fall back to the level")
	}
}

func TestRunQuits(t *testing.T) {
	ss := newSimScreen(t, 80, 24)
	g := New(ss, Options{Level: "museum"})
	ss.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := g.Run(ctx); err != nil {
		t.Fatalf("Run = %v, want nil after q", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ss := newSimScreen(t, 80, 24)
	g := New(ss, Options{Visits: visitlog.NewFileStore(t.TempDir() + "/visits.jsonl")})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- g.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if err != context.Canceled {
			t.Fatalf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func rowText(ss tcell.SimulationScreen, y, w int) string {
	var sb strings.Builder
	for x := 0; x < w; x++ {
		ch, _, _, width := ss.GetContent(x, y)
		if width == 0 {
			continue
		}
		sb.WriteRune(ch)
	}
	return sb.String()
}

func screenContains(ss tcell.SimulationScreen, w, h int, s string) bool {
	for y := 0; y < h; y++ {
		if strings.Contains(rowText(ss, y, w), s) {
			return true
		}
	}
	return false
}
