package main

import (
	"math"
	"testing"
)

func closeTo(a, b Vec2) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestNormalizeHeading(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0}, {90, 90}, {360, 0}, {720, 0}, {450, 90},
		{-90, 270}, {-360, 0}, {-1e-14, 0},
		{math.NaN(), 0}, {math.Inf(1), 0},
	}
	for _, tc := range cases {
		got := normalizeHeading(tc.in)
		if got != tc.want {
			t.Fatalf("normalizeHeading(%v) = %v, expected %v", tc.in, got, tc.want)
		}
		if got < 0 || got >= 360 {
			t.Fatalf("normalizeHeading(%v) = %v out of range", tc.in, got)
		}
	}
}

func TestHeadingDirection_ZeroIsUp(t *testing.T) {
	cases := []struct {
		heading float64
		want    Vec2
	}{
		{0, Vec2{0, -1}},
		{90, Vec2{1, 0}},
		{180, Vec2{0, 1}},
		{270, Vec2{-1, 0}},
	}
	for _, tc := range cases {
		if got := headingDirection(tc.heading); !closeTo(got, tc.want) {
			t.Fatalf("heading %v: direction %v, expected %v", tc.heading, got, tc.want)
		}
	}
}

func TestHeadingTowards(t *testing.T) {
	if h, ok := headingTowards(Vec2{0, -5}); !ok || math.Abs(h) > 1e-9 {
		t.Fatalf("up: got %v %v, expected 0", h, ok)
	}
	if h, ok := headingTowards(Vec2{3, 0}); !ok || math.Abs(h-90) > 1e-9 {
		t.Fatalf("right: got %v %v, expected 90", h, ok)
	}
	if _, ok := headingTowards(Vec2{}); ok {
		t.Fatal("zero vector has no heading")
	}
}

func TestClampToCanvas(t *testing.T) {
	v, clamped := clampToCanvas(Vec2{-3, 500}, 100, 200)
	if !clamped || v != (Vec2{0, 199}) {
		t.Fatalf("got %v %v", v, clamped)
	}
	v, clamped = clampToCanvas(Vec2{99, 0}, 100, 200)
	if clamped || v != (Vec2{99, 0}) {
		t.Fatalf("edge cell clamped: %v", v)
	}
}

func TestStepDistance(t *testing.T) {
	if got := stepDistance(6, 60); got != 6 {
		t.Fatalf("6 at 60fps = %v", got)
	}
	if got := stepDistance(6, 30); got != 12 {
		t.Fatalf("6 at 30fps = %v, expected 12", got)
	}
	if got := stepDistance(6, 0); got != 6 {
		t.Fatalf("zero fps should fall back to the default, got %v", got)
	}
}

func TestPlanMotion(t *testing.T) {
	pos := Vec2{100, 100}

	sub, arrived := planMotion(pos, Vec2{100, 150}, 0, 20, true, false)
	if arrived || !closeTo(sub, Vec2{100, 120}) {
		t.Fatalf("partial seek: %v %v", sub, arrived)
	}

	sub, arrived = planMotion(pos, Vec2{110, 100}, 0, 20, true, false)
	if !arrived || sub != (Vec2{110, 100}) {
		t.Fatalf("seek within reach: %v %v", sub, arrived)
	}

	// Seek wins over forward
	sub, _ = planMotion(pos, Vec2{110, 100}, 0, 20, true, true)
	if sub != (Vec2{110, 100}) {
		t.Fatalf("seek did not take priority: %v", sub)
	}

	sub, arrived = planMotion(pos, Vec2{}, 90, 5, false, true)
	if arrived || !closeTo(sub, Vec2{105, 100}) {
		t.Fatalf("forward: %v %v", sub, arrived)
	}

	if sub, _ := planMotion(pos, Vec2{}, 0, 5, false, false); sub != pos {
		t.Fatalf("idle turtle moved to %v", sub)
	}
}
