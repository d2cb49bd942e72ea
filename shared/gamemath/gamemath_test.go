package gamemath

import (
	"math"
	"testing"
)

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestVecArithmetic(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: 4, Y: -2, Z: 1}

	if got := a.Add(b); got != (Vec3{X: 5, Y: 0, Z: 4}) {
		t.Fatalf("Add: %+v", got)
	}
	if got := a.Sub(b); got != (Vec3{X: -3, Y: 4, Z: 2}) {
		t.Fatalf("Sub: %+v", got)
	}
	if got := a.Scale(2); got != (Vec3{X: 2, Y: 4, Z: 6}) {
		t.Fatalf("Scale: %+v", got)
	}
}

func TestLengthAndDist(t *testing.T) {
	if got := (Vec3{X: 3, Y: 4}).Length(); !almost(got, 5) {
		t.Fatalf("Length = %v, want 5", got)
	}
	if got := Dist(Vec3{X: 1}, Vec3{X: 4, Y: 4}); !almost(got, 5) {
		t.Fatalf("Dist = %v, want 5", got)
	}
}

func TestNormalizedHandlesZeroVector(t *testing.T) {
	if got := (Vec3{}).Normalized(); got != (Vec3{}) {
		t.Fatalf("zero vector normalized to %+v", got)
	}
	n := (Vec3{X: 0, Y: 0, Z: 7}).Normalized()
	if !almost(n.Length(), 1) || !almost(n.Z, 1) {
		t.Fatalf("normalized: %+v", n)
	}
}

func TestClampLength(t *testing.T) {
	v := Vec3{X: 30, Y: 40}
	clamped := ClampLength(v, 5)
	if !almost(clamped.Length(), 5) {
		t.Fatalf("clamped length %v, want 5", clamped.Length())
	}
	// Direction preserved.
	if !almost(clamped.X/clamped.Y, v.X/v.Y) {
		t.Fatalf("clamp changed direction: %+v", clamped)
	}

	short := Vec3{X: 1}
	if got := ClampLength(short, 5); got != short {
		t.Fatalf("short vector modified: %+v", got)
	}
}

func TestLerpEndpointsAndMidpoint(t *testing.T) {
	a := Vec3{X: 0, Y: 10}
	b := Vec3{X: 10, Y: 0}

	if got := Lerp(a, b, 0); got != a {
		t.Fatalf("Lerp t=0: %+v", got)
	}
	if got := Lerp(a, b, 1); got != b {
		t.Fatalf("Lerp t=1: %+v", got)
	}
	mid := Lerp(a, b, 0.5)
	if !almost(mid.X, 5) || !almost(mid.Y, 5) {
		t.Fatalf("Lerp t=0.5: %+v", mid)
	}
}

func TestHeadingRoundTrip(t *testing.T) {
	for _, h := range []float64{0, math.Pi / 4, math.Pi / 2, -math.Pi / 3} {
		fwd := ForwardFromHeading(h)
		if got := HeadingFromForward(fwd); !almost(got, h) {
			t.Fatalf("heading %v round-tripped to %v", h, got)
		}
	}
}

func TestHeadingIgnoresVerticalComponent(t *testing.T) {
	flat := HeadingFromForward(Vec3{X: 1, Z: 1})
	tilted := HeadingFromForward(Vec3{X: 1, Y: 5, Z: 1})
	if !almost(flat, tilted) {
		t.Fatalf("pitch leaked into heading: %v vs %v", flat, tilted)
	}
}

func TestLaunchVelocityAddsArcBias(t *testing.T) {
	v := LaunchVelocity(Vec3{X: 2}, 10, 3)
	if !almost(v.X, 10) {
		t.Fatalf("forward speed %v, want 10 (direction normalized)", v.X)
	}
	if !almost(v.Y, 3) {
		t.Fatalf("arc bias %v, want 3", v.Y)
	}
}

func TestStepBallisticIntegratesGravityFirst(t *testing.T) {
	pos := Vec3{Y: 10}
	vel := Vec3{X: 2}
	dt := 0.5

	newPos, newVel := StepBallistic(pos, vel, 10, dt)
	if !almost(newVel.Y, -5) {
		t.Fatalf("velocity Y %v, want -5 after half a second at g=10", newVel.Y)
	}
	// Semi-implicit Euler: the position step uses the updated velocity.
	if !almost(newPos.Y, 10-5*dt) {
		t.Fatalf("position Y %v, want %v", newPos.Y, 10-5*dt)
	}
	if !almost(newPos.X, 1) {
		t.Fatalf("position X %v, want 1", newPos.X)
	}
}
