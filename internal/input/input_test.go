package input

import (
	"testing"
	"time"
)

func TestParseKey(t *testing.T) {
	cases := []struct {
		name string
		want Key
	}{
		{"w", KeyForward},
		{"ArrowUp", KeyForward},
		{"S", KeyBackward},
		{"arrowdown", KeyBackward},
		{"a", KeyTurnLeft},
		{"ArrowLeft", KeyTurnLeft},
		{"d", KeyTurnRight},
		{"arrowright", KeyTurnRight},
		{"Enter", KeySelect},
		{"Escape", KeyQuit},
		{"x", KeyNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseKey(tc.name); got != tc.want {
				t.Errorf("ParseKey(%q) = %v, want %v", tc.name, got, tc.want)
			}
		})
	}
}

func TestStatePressRelease(t *testing.T) {
	st := NewState()
	st.Press(KeyForward)
	st.Press(KeyTurnLeft)
	st.Press(KeyNone)
	if !st.Held(KeyForward) || !st.Held(KeyTurnLeft) {
		t.Fatal("pressed keys should be held")
	}
	if st.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", st.Len())
	}
	st.Set(KeyForward, false)
	if st.Held(KeyForward) {
		t.Fatal("released key should not be held")
	}
	st.Clear()
	if st.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", st.Len())
	}
}

func TestHolderExpires(t *testing.T) {
	st := NewState()
	h := NewHolder(st, 100*time.Millisecond)
	t0 := time.Unix(0, 0)

	h.Press(KeyForward, t0)
	h.Expire(t0.Add(50 * time.Millisecond))
	if !st.Held(KeyForward) {
		t.Fatal("key should still be held inside the window")
	}

	// A repeat extends the hold.
	h.Press(KeyForward, t0.Add(90*time.Millisecond))
	h.Expire(t0.Add(150 * time.Millisecond))
	if !st.Held(KeyForward) {
		t.Fatal("repeat should extend the hold")
	}

	h.Expire(t0.Add(300 * time.Millisecond))
	if st.Held(KeyForward) {
		t.Fatal("key should be released after the window")
	}
}

func TestHolderOppositeKeysCancel(t *testing.T) {
	st := NewState()
	h := NewHolder(st, time.Second)
	now := time.Unix(0, 0)
	h.Press(KeyTurnLeft, now)
	h.Press(KeyTurnRight, now)
	if st.Held(KeyTurnLeft) {
		t.Fatal("turning right should release turn-left")
	}
	h.Reset()
	if st.Len() != 0 {
		t.Fatalf("Reset left %d keys held", st.Len())
	}
}

func TestSourceFunc(t *testing.T) {
	st := NewState()
	released := false
	var src Source = SourceFunc(func(s *State) func() {
		s.Press(KeyForward)
		return func() { released = true }
	})
	release := src.Attach(st)
	if !st.Held(KeyForward) {
		t.Fatal("source should have pressed forward")
	}
	release()
	if !released {
		t.Fatal("release func not called")
	}
}
