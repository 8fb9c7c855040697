// turtle_scanner.go - Colour change detection along a planned step

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

import "image"

// ColorChange records a colour met along a path and where the turtle stood
// just before reaching it. Two changes are the same change when their
// colours match.
type ColorChange struct {
	Color  uint16
	Before Vec2
}

// scanColorChanges walks start->end with pen radius r and returns every new
// colour in first-encounter order. Colours under the footprint at start are
// ignored. The canvas is only read.
func scanColorChanges(canvas *Canvas, start, end Vec2, r int) []ColorChange {
	// Fresh per scan: repeated scans of an unchanged canvas must agree
	seen := make(map[uint16]struct{})
	var changes []ColorChange

	bounds := canvas.Bounds()
	from := start.Cell()
	to := end.Cell()

	forEachFootprintCell(from, r, bounds, func(cell image.Point) {
		seen[canvas.GetPacked(cell.X, cell.Y)] = struct{}{}
	})

	rasterizeLine(from, to, r, bounds, func(prev, _ image.Point, cell image.Point) {
		c := canvas.GetPacked(cell.X, cell.Y)
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		changes = append(changes, ColorChange{Color: c, Before: vecFromPoint(prev)})
	})
	return changes
}
