package game

import (
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"nise/internal/input"
)

// Action is what the host does with a key event.
type Action uint8

const (
	ActionNone    Action = iota
	ActionControl        // a movement key, forwarded to the scene
	ActionSelect
	ActionBack
	ActionQuit
)

// keyToAction maps a tcell key event to a host action and, for
// ActionControl, the logical key.
func keyToAction(ev *tcell.EventKey) (Action, input.Key) {
	// Named keys.
	switch ev.Key() {
	case tcell.KeyUp:
		return ActionControl, input.KeyForward
	case tcell.KeyDown:
		return ActionControl, input.KeyBackward
	case tcell.KeyLeft:
		return ActionControl, input.KeyTurnLeft
	case tcell.KeyRight:
		return ActionControl, input.KeyTurnRight
	case tcell.KeyEnter:
		return ActionSelect, input.KeySelect
	case tcell.KeyEscape:
		return ActionBack, input.KeyNone
	case tcell.KeyCtrlC:
		return ActionQuit, input.KeyQuit
	case tcell.KeyRune:
	default:
		return ActionNone, input.KeyNone
	}

	// Rune keys.
	switch ev.Rune() {
	case 'q', 'Q':
		return ActionQuit, input.KeyQuit
	case ' ':
		return ActionSelect, input.KeySelect
	}
	switch k := input.ParseKey(string(ev.Rune())); k {
	case input.KeyForward, input.KeyBackward, input.KeyTurnLeft, input.KeyTurnRight:
		return ActionControl, k
	}
	return ActionNone, input.KeyNone
}

// keySource feeds terminal key presses into whichever scene it is attached
// to. Terminals send no key-up events, so presses go through an
// input.Holder that releases keys once auto-repeat stops.
type keySource struct {
	window time.Duration

	mu     sync.Mutex
	holder *input.Holder
}

func newKeySource(window time.Duration) *keySource {
	return &keySource{window: window}
}

// Attach implements input.Source.
func (k *keySource) Attach(st *input.State) func() {
	h := input.NewHolder(st, k.window)
	k.mu.Lock()
	k.holder = h
	k.mu.Unlock()
	return func() {
		h.Reset()
		k.mu.Lock()
		if k.holder == h {
			k.holder = nil
		}
		k.mu.Unlock()
	}
}

// Press forwards a press to the attached scene. It is dropped when no scene
// is attached.
func (k *keySource) Press(key input.Key, now time.Time) {
	k.mu.Lock()
	h := k.holder
	k.mu.Unlock()
	if h != nil {
		h.Press(key, now)
	}
}

// Expire implements scene.Expirer.
func (k *keySource) Expire(now time.Time) {
	k.mu.Lock()
	h := k.holder
	k.mu.Unlock()
	if h != nil {
		h.Expire(now)
	}
}
