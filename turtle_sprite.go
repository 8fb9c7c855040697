// turtle_sprite.go - Frame composition for TeenyTurtle

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
turtle_sprite.go - Turtle Frame Composer

Each video frame is the canvas with every turtle's sprite drawn on top,
rotated to its heading. Sprites never touch the canvas itself, so detection
only ever sees pen strokes.

The sprite image points up (heading 0). A custom sprite can be loaded from
any PNG or BMP; otherwise a small outlined arrow is generated.
*/

package main

import (
	"bufio"
	"image"
	"image/color"
	"math"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

type FrameComposer struct {
	sprite *image.RGBA
	frame  *image.RGBA
}

func NewFrameComposer(width, height int, sprite image.Image) *FrameComposer {
	if sprite == nil {
		sprite = defaultTurtleSprite(TURTLE_SPRITE_SIZE)
	}
	b := sprite.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), sprite, b.Min, draw.Src)
	return &FrameComposer{
		sprite: rgba,
		frame:  image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// LoadSprite decodes a sprite image file
func LoadSprite(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &TurtleError{Operation: "sprite load", Details: path, Err: err}
	}
	defer f.Close()
	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, &TurtleError{Operation: "sprite decode", Details: path, Err: err}
	}
	return img, nil
}

// defaultTurtleSprite draws an upward arrow with a dark outline
func defaultTurtleSprite(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	fill := color.RGBA{0x20, 0xA0, 0x40, 0xFF}
	edge := color.RGBA{0x10, 0x30, 0x10, 0xFF}

	s := float64(size)
	apex := Vec2{s / 2, 0.5}
	left := Vec2{1, s - 1}
	right := Vec2{s - 1, s - 1}

	inside := func(p Vec2, inset float64) bool {
		return edgeDistance(apex, left, p) >= inset &&
			edgeDistance(left, right, p) >= inset &&
			edgeDistance(right, apex, p) >= inset
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			p := Vec2{float64(x) + 0.5, float64(y) + 0.5}
			switch {
			case inside(p, 1.2):
				img.SetRGBA(x, y, fill)
			case inside(p, 0):
				img.SetRGBA(x, y, edge)
			}
		}
	}
	return img
}

// edgeDistance is the signed distance of p from the directed edge a->b,
// positive to the left of the edge in screen space
func edgeDistance(a, b, p Vec2) float64 {
	d := b.Sub(a)
	l := d.Length()
	if l == 0 {
		return 0
	}
	return (d.Y*(p.X-a.X) - d.X*(p.Y-a.Y)) / l
}

// spriteTransform maps sprite pixels onto the frame, centred on pos and
// rotated clockwise by heading
func spriteTransform(pos Vec2, heading float64, w, h int) f64.Aff3 {
	rad := heading * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	cx, cy := float64(w)/2, float64(h)/2
	px, py := pos.X+0.5, pos.Y+0.5
	return f64.Aff3{
		cos, -sin, px - cos*cx + sin*cy,
		sin, cos, py - sin*cx - cos*cy,
	}
}

// Compose renders the canvas plus one sprite per turtle into the frame and
// returns it. The returned image is reused by the next call.
func (fc *FrameComposer) Compose(canvas *Canvas, turtles []TurtleStatus) *image.RGBA {
	if fc.frame.Rect != canvas.Bounds() {
		fc.frame = image.NewRGBA(canvas.Bounds())
	}
	draw.Draw(fc.frame, fc.frame.Rect, canvas.Image(), image.Point{}, draw.Src)

	sb := fc.sprite.Bounds()
	for _, t := range turtles {
		m := spriteTransform(t.Position, t.Heading, sb.Dx(), sb.Dy())
		draw.BiLinear.Transform(fc.frame, m, fc.sprite, sb, draw.Over, nil)
	}
	return fc.frame
}
