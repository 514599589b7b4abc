// Package input holds the per-tick held-key state read by the motion
// controller and the adapters that feed it.
package input

import (
	"strings"
	"sync"

	"github.com/zyedidia/generic/mapset"
)

// Key is a logical control, independent of the device that produced it.
type Key uint8

const (
	KeyNone Key = iota
	KeyForward
	KeyBackward
	KeyTurnLeft
	KeyTurnRight
	KeySelect
	KeyQuit
)

var keyNames = map[Key]string{
	KeyForward:   "forward",
	KeyBackward:  "backward",
	KeyTurnLeft:  "turn-left",
	KeyTurnRight: "turn-right",
	KeySelect:    "select",
	KeyQuit:      "quit",
}

func (k Key) String() string {
	if n, ok := keyNames[k]; ok {
		return n
	}
	return "none"
}

// ParseKey maps a browser-style key name ("w", "ArrowUp", ...) to a logical key.
func ParseKey(name string) Key {
	switch strings.ToLower(name) {
	case "w", "arrowup", "up":
		return KeyForward
	case "s", "arrowdown", "down":
		return KeyBackward
	case "a", "arrowleft", "left":
		return KeyTurnLeft
	case "d", "arrowright", "right":
		return KeyTurnRight
	case "enter", " ", "space":
		return KeySelect
	case "q", "escape", "esc":
		return KeyQuit
	}
	return KeyNone
}

// State is the set of currently held keys. Device adapters write it from
// their own goroutines; the motion controller reads it once per tick.
type State struct {
	mu   sync.Mutex
	held mapset.Set[Key]
}

// NewState returns an empty key state.
func NewState() *State {
	return &State{held: mapset.New[Key]()}
}

// Press marks k as held.
func (s *State) Press(k Key) {
	if k == KeyNone {
		return
	}
	s.mu.Lock()
	s.held.Put(k)
	s.mu.Unlock()
}

// Release marks k as no longer held.
func (s *State) Release(k Key) {
	s.mu.Lock()
	s.held.Remove(k)
	s.mu.Unlock()
}

// Set presses or releases k.
func (s *State) Set(k Key, down bool) {
	if down {
		s.Press(k)
	} else {
		s.Release(k)
	}
}

// Held reports whether k is held.
func (s *State) Held(k Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held.Has(k)
}

// Clear releases every key.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []Key
	s.held.Each(func(k Key) { keys = append(keys, k) })
	for _, k := range keys {
		s.held.Remove(k)
	}
}

// Len returns the number of held keys.
func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held.Size()
}

// Source feeds a State from an external device. Attach starts delivering
// into st and returns a function that stops delivery; the release function
// must be safe to call more than once.
type Source interface {
	Attach(st *State) (release func())
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(st *State) (release func())

// Attach calls f.
func (f SourceFunc) Attach(st *State) func() { return f(st) }
