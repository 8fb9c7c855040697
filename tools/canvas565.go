// canvas565.go - Prepare a canvas image for TeenyTurtle
//
// Usage: go run canvas565.go [-size WxH] input.(png|bmp) output.png
//
// Every pixel is rounded to RGB565 and expanded back, so colours read
// through DETECT and the colour-change queue match the file exactly.

package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

func main() {
	size := flag.String("size", "", "Resize to WxH before quantizing")
	flag.Parse()
	if flag.NArg() != 2 {
		fmt.Println("Usage: canvas565 [-size WxH] input.(png|bmp) output.png")
		os.Exit(1)
	}

	img, err := decode(flag.Arg(0))
	if err != nil {
		fmt.Printf("Error decoding %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}

	bounds := img.Bounds()
	dst := image.Rect(0, 0, bounds.Dx(), bounds.Dy())
	if *size != "" {
		var w, h int
		if _, err := fmt.Sscanf(strings.ToLower(*size), "%dx%d", &w, &h); err != nil || w < 1 || h < 1 {
			fmt.Printf("Invalid -size %q\n", *size)
			os.Exit(1)
		}
		dst = image.Rect(0, 0, w, h)
	}

	rgba := image.NewRGBA(dst)
	if dst.Size() == bounds.Size() {
		draw.Draw(rgba, dst, img, bounds.Min, draw.Src)
	} else {
		// Nearest keeps hard edges; smoothing would invent colours
		draw.NearestNeighbor.Scale(rgba, dst, img, bounds, draw.Src, nil)
	}

	colours := quantize565(rgba.Pix)

	out, err := os.Create(flag.Arg(1))
	if err != nil {
		fmt.Printf("Error creating output: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := png.Encode(out, rgba); err != nil {
		fmt.Printf("Error writing output: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Canvas %dx%d written to %s (%d distinct colours)\n", dst.Dx(), dst.Dy(), flag.Arg(1), colours)
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if strings.HasSuffix(strings.ToLower(path), ".bmp") {
		return bmp.Decode(f)
	}
	img, _, err := image.Decode(f)
	return img, err
}

// quantize565 rounds RGBA pixels to RGB565 precision in place, forcing
// alpha opaque, and returns the number of distinct colours
func quantize565(pix []byte) int {
	seen := make(map[uint16]struct{})
	for i := 0; i+3 < len(pix); i += 4 {
		r := uint16(pix[i]) >> 3
		g := uint16(pix[i+1]) >> 2
		b := uint16(pix[i+2]) >> 3
		seen[r<<11|g<<5|b] = struct{}{}
		pix[i] = byte(r<<3 | r>>2)
		pix[i+1] = byte(g<<2 | g>>4)
		pix[i+2] = byte(b<<3 | b>>2)
		pix[i+3] = 0xFF
	}
	return len(seen)
}
