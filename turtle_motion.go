// turtle_motion.go - Per-tick motion planning for TeenyTurtle

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import (
	"image"
	"math"
)

// Vec2 is a canvas-space position
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2        { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2        { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2   { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Length() float64        { return math.Hypot(v.X, v.Y) }
func (v Vec2) IsFinite() bool         { return !math.IsNaN(v.X+v.Y) && !math.IsInf(v.X+v.Y, 0) }
func vecFromPoint(p image.Point) Vec2 { return Vec2{float64(p.X), float64(p.Y)} }

// Cell rounds to the canvas cell holding v
func (v Vec2) Cell() image.Point {
	return image.Point{X: int(math.Round(v.X)), Y: int(math.Round(v.Y))}
}

// clampToCanvas limits v to [0,w-1]x[0,h-1] and reports whether it moved
func clampToCanvas(v Vec2, w, h int) (Vec2, bool) {
	clamped := false
	maxX := float64(w - 1)
	maxY := float64(h - 1)
	if v.X < 0 {
		v.X = 0
		clamped = true
	} else if v.X > maxX {
		v.X = maxX
		clamped = true
	}
	if v.Y < 0 {
		v.Y = 0
		clamped = true
	} else if v.Y > maxY {
		v.Y = maxY
		clamped = true
	}
	return v, clamped
}

// normalizeHeading folds any angle into [0, 360)
func normalizeHeading(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	// -tiny + 360 rounds to 360 in float64
	if h >= 360 {
		h = 0
	}
	return h
}

// headingDirection is the unit vector forward motion follows
func headingDirection(heading float64) Vec2 {
	rad := (heading + HEADING_FORWARD_OFFSET) * math.Pi / 180
	return Vec2{math.Cos(rad), math.Sin(rad)}
}

// headingTowards returns the heading whose forward direction points along d
func headingTowards(d Vec2) (float64, bool) {
	if d.Length() == 0 || !d.IsFinite() {
		return 0, false
	}
	deg := math.Atan2(d.Y, d.X) * 180 / math.Pi
	return normalizeHeading(deg - HEADING_FORWARD_OFFSET), true
}

// stepDistance converts a speed given at SPEED_REFERENCE_FPS to units per frame
func stepDistance(speed float64, fps int) float64 {
	if fps <= 0 {
		fps = DEFAULT_FPS
	}
	return speed * float64(SPEED_REFERENCE_FPS) / float64(fps)
}

// planMotion computes one tick's sub-target. SeekTarget wins over Forward.
// arrived is set when the sub-target is the seek target itself.
func planMotion(pos, target Vec2, heading, step float64, seek, forward bool) (sub Vec2, arrived bool) {
	switch {
	case seek:
		d := target.Sub(pos)
		dist := d.Length()
		if !d.IsFinite() {
			return pos, true
		}
		if dist <= step {
			return target, true
		}
		return pos.Add(d.Scale(step / dist)), false

	case forward:
		dir := headingDirection(heading)
		if !dir.IsFinite() {
			return pos, false
		}
		return pos.Add(dir.Scale(step)), false
	}
	return pos, false
}
