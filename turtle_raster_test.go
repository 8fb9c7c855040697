package main

import (
	"image"
	"testing"
)

type rasterStep struct {
	prev, center, cell image.Point
}

func collectRaster(p1, p2 image.Point, r int, bounds image.Rectangle) []rasterStep {
	var steps []rasterStep
	rasterizeLine(p1, p2, r, bounds, func(prev, center, cell image.Point) {
		steps = append(steps, rasterStep{prev, center, cell})
	})
	return steps
}

func TestFootprint_Sizes(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)
	cases := []struct{ r, want int }{
		{0, 1}, {1, 1}, {2, 9}, {3, 25},
	}
	for _, tc := range cases {
		n := 0
		forEachFootprintCell(image.Pt(50, 50), tc.r, bounds, func(image.Point) { n++ })
		if n != tc.want {
			t.Fatalf("radius %d: %d cells, expected %d", tc.r, n, tc.want)
		}
	}
}

func TestFootprint_ClippedToBounds(t *testing.T) {
	bounds := image.Rect(0, 0, 10, 10)
	n := 0
	forEachFootprintCell(image.Pt(0, 0), 2, bounds, func(cell image.Point) {
		if !cell.In(bounds) {
			t.Fatalf("cell %v outside bounds", cell)
		}
		n++
	})
	if n != 4 {
		t.Fatalf("corner footprint has %d cells, expected 4", n)
	}
	forEachFootprintCell(image.Pt(-1, 5), 1, bounds, func(cell image.Point) {
		t.Fatalf("off-canvas center visited %v", cell)
	})
}

func TestRasterize_HorizontalSpan(t *testing.T) {
	steps := collectRaster(image.Pt(2, 5), image.Pt(5, 5), 1, image.Rect(0, 0, 10, 10))
	if len(steps) != 4 {
		t.Fatalf("got %d visits, expected 4", len(steps))
	}
	if steps[0].prev != image.Pt(2, 5) {
		t.Fatalf("first step prev = %v, expected the start", steps[0].prev)
	}
	for i, s := range steps {
		want := image.Pt(2+i, 5)
		if s.cell != want || s.center != want {
			t.Fatalf("step %d: %+v, expected cell %v", i, s, want)
		}
		if i > 0 && s.prev != steps[i-1].center {
			t.Fatalf("step %d: prev %v, expected %v", i, s.prev, steps[i-1].center)
		}
	}
}

func TestRasterize_ReverseVerticalSpan(t *testing.T) {
	steps := collectRaster(image.Pt(3, 6), image.Pt(3, 3), 1, image.Rect(0, 0, 10, 10))
	if len(steps) != 4 || steps[3].cell != image.Pt(3, 3) {
		t.Fatalf("unexpected walk %+v", steps)
	}
}

func TestRasterize_SpanBandAndEndCaps(t *testing.T) {
	cells := map[image.Point]bool{}
	for _, s := range collectRaster(image.Pt(2, 5), image.Pt(6, 5), 2, image.Rect(0, 0, 10, 10)) {
		cells[s.cell] = true
	}
	// Band of +-1 rows along the path
	for x := 2; x <= 6; x++ {
		for y := 4; y <= 6; y++ {
			if !cells[image.Pt(x, y)] {
				t.Fatalf("(%d,%d) missing from band", x, y)
			}
		}
	}
	// Discs at both ends reach one cell further
	if !cells[image.Pt(1, 5)] || !cells[image.Pt(7, 5)] {
		t.Fatal("end caps missing")
	}
	if cells[image.Pt(4, 3)] {
		t.Fatal("middle of the band wider than r-1")
	}
}

func TestRasterize_SinglePoint(t *testing.T) {
	steps := collectRaster(image.Pt(4, 4), image.Pt(4, 4), 1, image.Rect(0, 0, 10, 10))
	if len(steps) != 1 || steps[0].cell != image.Pt(4, 4) {
		t.Fatalf("unexpected walk %+v", steps)
	}
}

func TestRasterize_Diagonal(t *testing.T) {
	steps := collectRaster(image.Pt(0, 0), image.Pt(3, 3), 1, image.Rect(0, 0, 10, 10))
	if len(steps) != 4 {
		t.Fatalf("got %d steps, expected 4", len(steps))
	}
	for i, s := range steps {
		if s.center != image.Pt(i, i) {
			t.Fatalf("step %d at %v", i, s.center)
		}
	}
}

func TestRasterize_ShallowLineReachesEnd(t *testing.T) {
	p2 := image.Pt(7, 2)
	steps := collectRaster(image.Pt(0, 0), p2, 1, image.Rect(0, 0, 10, 10))
	if len(steps) != 8 {
		t.Fatalf("got %d steps, expected one per column", len(steps))
	}
	if steps[len(steps)-1].center != p2 {
		t.Fatalf("walk ended at %v", steps[len(steps)-1].center)
	}
	for i := 1; i < len(steps); i++ {
		d := steps[i].center.Sub(steps[i-1].center)
		if abs(d.X) > 1 || abs(d.Y) > 1 {
			t.Fatalf("gap between steps %d and %d", i-1, i)
		}
	}
}

func BenchmarkRasterize_WidePen(b *testing.B) {
	bounds := image.Rect(0, 0, 640, 500)
	for i := 0; i < b.N; i++ {
		rasterizeLine(image.Pt(10, 20), image.Pt(600, 470), 5, bounds, func(_, _, _ image.Point) {})
	}
}
