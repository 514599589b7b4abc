package player

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestNewDerivesPerpendicularPlane(t *testing.T) {
	s := New(8, 8, -1, 0, 0.66, 0.05, 0.03)
	if math.Abs(s.Plane.X()) > eps || math.Abs(s.Plane.Y()-0.66) > eps {
		t.Fatalf("plane = %v, want (0, 0.66)", s.Plane)
	}
	if d := s.Dir.Dot(s.Plane); math.Abs(d) > eps {
		t.Fatalf("dir·plane = %g, want 0", d)
	}
}

func TestNewNormalizesDirection(t *testing.T) {
	s := New(1, 1, 3, 4, 0.66, 0.05, 0.03)
	if math.Abs(s.Dir.Len()-1) > eps {
		t.Fatalf("|dir| = %g, want 1", s.Dir.Len())
	}
	if math.Abs(s.PlaneLength()-0.66) > eps {
		t.Fatalf("|plane| = %g, want 0.66", s.PlaneLength())
	}
}

func TestCell(t *testing.T) {
	s := New(5.9, 3.1, 1, 0, 0.66, 0.05, 0.03)
	if x, y := s.Cell(); x != 5 || y != 3 {
		t.Fatalf("Cell() = (%d,%d), want (5,3)", x, y)
	}
}

func TestRotateQuarterTurn(t *testing.T) {
	s := New(0, 0, 1, 0, 0.66, 0, 0)
	s.Rotate(math.Pi / 2)
	if math.Abs(s.Dir.X()) > eps || math.Abs(s.Dir.Y()-1) > eps {
		t.Fatalf("dir = %v, want (0,1)", s.Dir)
	}
}

func TestRotationDrift(t *testing.T) {
	s := New(8, 8, -1, 0, 0.66, 0.05, 0.03)
	for i := 0; i < 1000; i++ {
		s.Rotate(s.RotSpeed)
	}
	if d := math.Abs(s.Dir.Len() - 1); d > 1e-9 {
		t.Errorf("|dir| drifted by %g after 1000 rotations", d)
	}
	if d := math.Abs(s.Dir.Dot(s.Plane)); d > 1e-9 {
		t.Errorf("dir·plane drifted to %g after 1000 rotations", d)
	}
}

func TestRenormalize(t *testing.T) {
	s := New(0, 0, 1, 0, 0.66, 0, 0)
	s.Dir = s.Dir.Mul(1.01)
	s.Plane = s.Plane.Mul(1.02)
	s.Renormalize()
	if math.Abs(s.Dir.Len()-1) > eps {
		t.Errorf("|dir| = %g, want 1", s.Dir.Len())
	}
	if math.Abs(s.Dir.Dot(s.Plane)) > eps {
		t.Errorf("dir·plane = %g, want 0", s.Dir.Dot(s.Plane))
	}
	if s.Plane.Y() > 0 {
		t.Errorf("plane handedness flipped: %v", s.Plane)
	}
}
