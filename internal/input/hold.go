package input

import (
	"sync"
	"time"
)

// DefaultHoldWindow covers the gap between a terminal's first key event and
// its auto-repeat, and between two repeats.
const DefaultHoldWindow = 550 * time.Millisecond

// Holder emulates key-up events for devices that only report presses and
// auto-repeats (terminals). A press holds its key until Window elapses
// without another press of the same key.
type Holder struct {
	Window time.Duration

	mu       sync.Mutex
	st       *State
	lastSeen map[Key]time.Time
}

// NewHolder returns a Holder writing into st.
func NewHolder(st *State, window time.Duration) *Holder {
	if window <= 0 {
		window = DefaultHoldWindow
	}
	return &Holder{Window: window, st: st, lastSeen: make(map[Key]time.Time)}
}

// Press records a press (or repeat) of k at now.
func (h *Holder) Press(k Key, now time.Time) {
	if k == KeyNone {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	// Opposing keys cancel each other so a quick reversal does not leave
	// both held until the window expires.
	if o := opposite(k); o != KeyNone {
		h.st.Release(o)
		delete(h.lastSeen, o)
	}
	h.st.Press(k)
	h.lastSeen[k] = now
}

// Expire releases every key whose last press is older than the window.
func (h *Holder) Expire(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for k, t := range h.lastSeen {
		if now.Sub(t) >= h.Window {
			h.st.Release(k)
			delete(h.lastSeen, k)
		}
	}
}

// Reset releases everything the holder pressed.
func (h *Holder) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for k := range h.lastSeen {
		h.st.Release(k)
		delete(h.lastSeen, k)
	}
}

func opposite(k Key) Key {
	switch k {
	case KeyForward:
		return KeyBackward
	case KeyBackward:
		return KeyForward
	case KeyTurnLeft:
		return KeyTurnRight
	case KeyTurnRight:
		return KeyTurnLeft
	}
	return KeyNone
}
