// turtle_canvas.go - Shared drawing surface for TeenyTurtle

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
turtle_canvas.go - Turtle Canvas

The canvas is the one resource shared by every turtle. It is a plain RGBA
bitmap owned by the machine; turtles read it while scanning and write it only
when a stroke is committed or the pen stamps a dot. Writes follow
"last writer wins", so scheduler order decides overlaps.

Canvas images can be loaded from PNG or BMP. Without one the canvas starts as
a blank white DEFAULT_CANVAS_WIDTH x DEFAULT_CANVAS_HEIGHT sheet.
*/

package main

import (
	"bufio"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

type Canvas struct {
	img *image.RGBA
}

// NewCanvas creates a white canvas of the given size
func NewCanvas(width, height int) *Canvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(ColorFrom565(COLOR565_WHITE)), image.Point{}, draw.Src)
	return &Canvas{img: img}
}

// NewCanvasFromImage copies src into a fresh canvas anchored at the origin
func NewCanvasFromImage(src image.Image) *Canvas {
	b := src.Bounds()
	img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), src, b.Min, draw.Src)
	return &Canvas{img: img}
}

// LoadCanvas decodes a PNG or BMP file into a canvas
func LoadCanvas(path string) (*Canvas, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &TurtleError{Operation: "canvas load", Details: path, Err: err}
	}
	defer f.Close()

	src, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, &TurtleError{Operation: "canvas decode", Details: path, Err: err}
	}
	if src.Bounds().Empty() {
		return nil, &TurtleError{Operation: "canvas decode", Details: path + ": empty image"}
	}
	return NewCanvasFromImage(src), nil
}

func (c *Canvas) Width() int  { return c.img.Rect.Dx() }
func (c *Canvas) Height() int { return c.img.Rect.Dy() }

func (c *Canvas) Bounds() image.Rectangle { return c.img.Rect }

// Image exposes the backing bitmap for frame composition
func (c *Canvas) Image() *image.RGBA { return c.img }

func (c *Canvas) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.img.Rect.Dx() && y < c.img.Rect.Dy()
}

// Get returns the colour at (x, y), or transparent black outside the canvas
func (c *Canvas) Get(x, y int) color.RGBA {
	if !c.InBounds(x, y) {
		return color.RGBA{}
	}
	return c.img.RGBAAt(x, y)
}

// GetPacked returns the RGB565 form of the colour at (x, y)
func (c *Canvas) GetPacked(x, y int) uint16 {
	return ColorTo565(c.Get(x, y))
}

func (c *Canvas) Set(x, y int, col color.RGBA) {
	if !c.InBounds(x, y) {
		return
	}
	c.img.SetRGBA(x, y, col)
}

// StampDisc fills the pen footprint of radius r around center
func (c *Canvas) StampDisc(center image.Point, r int, col color.RGBA) {
	forEachFootprintCell(center, r, c.Bounds(), func(cell image.Point) {
		c.img.SetRGBA(cell.X, cell.Y, col)
	})
}

// WritePNG encodes the canvas as PNG
func (c *Canvas) WritePNG(w io.Writer) error {
	return png.Encode(w, c.img)
}

// SavePNG writes the canvas to a PNG file
func (c *Canvas) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &TurtleError{Operation: "canvas save", Details: path, Err: err}
	}
	if err := c.WritePNG(f); err != nil {
		f.Close()
		return &TurtleError{Operation: "canvas encode", Details: path, Err: err}
	}
	return f.Close()
}
