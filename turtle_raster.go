// turtle_raster.go - Line rasterizer shared by drawing and detection

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

/*
turtle_raster.go - Turtle Line Rasterizer

One walker serves both the pen (drawing committed strokes) and the colour
change scanner (reading the canvas along a planned step). The two call sites
differ only in the visitor they pass.

The walk produces step centers c0 = p1 .. cn = p2. For every step the visitor
is called once per footprint cell with the previous step center (c0 for the
first step), the current center and the cell itself.

Footprints:
- r <= 1: the center cell alone
- r > 1:  a disc, cell (x,y) included iff (x-cx)^2 + (y-cy)^2 < r^2

Axis-aligned lines use a direct span: each step covers the band of cells
perpendicular to the line, |offset| <= r-1, and the two end steps also get a
full disc when r > 1. Everything else uses integer Bresenham stepping.
*/

package main

import "image"

// rasterVisitor receives each footprint cell together with the step it belongs to
type rasterVisitor func(prev, center, cell image.Point)

// forEachFootprintCell calls fn for every in-bounds cell of the pen footprint
func forEachFootprintCell(center image.Point, r int, bounds image.Rectangle, fn func(cell image.Point)) {
	if r <= 1 {
		if center.In(bounds) {
			fn(center)
		}
		return
	}

	minX := max(bounds.Min.X, center.X-r)
	minY := max(bounds.Min.Y, center.Y-r)
	maxX := min(bounds.Max.X, center.X+r+1)
	maxY := min(bounds.Max.Y, center.Y+r+1)
	rr := r * r

	for y := minY; y < maxY; y++ {
		dy := y - center.Y
		for x := minX; x < maxX; x++ {
			dx := x - center.X
			if dx*dx+dy*dy < rr {
				fn(image.Point{X: x, Y: y})
			}
		}
	}
}

// rasterizeLine walks from p1 to p2 with pen radius r
func rasterizeLine(p1, p2 image.Point, r int, bounds image.Rectangle, visit rasterVisitor) {
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y

	if dx == 0 || dy == 0 {
		rasterizeSpan(p1, p2, r, bounds, visit)
		return
	}

	sx, sy := 1, 1
	if dx < 0 {
		sx = -1
	}
	if dy < 0 {
		sy = -1
	}
	absDx := abs(dx)
	absDy := abs(dy)
	err := absDx - absDy

	prev := p1
	cur := p1
	for {
		forEachFootprintCell(cur, r, bounds, func(cell image.Point) {
			visit(prev, cur, cell)
		})
		if cur == p2 {
			return
		}

		prev = cur
		e2 := 2 * err
		if e2 > -absDy {
			err -= absDy
			cur.X += sx
		}
		if e2 < absDx {
			err += absDx
			cur.Y += sy
		}
	}
}

// rasterizeSpan handles horizontal, vertical and single-point lines
func rasterizeSpan(p1, p2 image.Point, r int, bounds image.Rectangle, visit rasterVisitor) {
	step := image.Point{X: sign(p2.X - p1.X), Y: sign(p2.Y - p1.Y)}
	// Band runs across the direction of travel; a single point has no direction
	across := image.Point{X: 1, Y: 0}
	if step.X != 0 {
		across = image.Point{X: 0, Y: 1}
	}
	band := max(r-1, 0)

	prev := p1
	cur := p1
	for {
		if r > 1 && (cur == p1 || cur == p2) {
			forEachFootprintCell(cur, r, bounds, func(cell image.Point) {
				visit(prev, cur, cell)
			})
		}
		for k := -band; k <= band; k++ {
			cell := cur.Add(across.Mul(k))
			if cell.In(bounds) {
				visit(prev, cur, cell)
			}
		}
		if cur == p2 {
			return
		}
		prev = cur
		cur = cur.Add(step)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
