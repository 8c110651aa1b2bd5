//go:build ignore

// gen_fixtures creates small product-style photos for the E2E smoke test.
// Usage: go run gen_fixtures.go <output_dir>
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	os.MkdirAll(dir, 0o755)

	// Dark, wide subject on a light backdrop (JPEG, 640x360): brightened.
	writeJPEG(filepath.Join(dir, "mug.jpg"),
		product(640, 360, color.NRGBA{R: 60, G: 40, B: 30, A: 255}, image.Rect(180, 60, 460, 330)))

	// Tall subject (PNG, 240x480).
	writeImage(filepath.Join(dir, "bottle.png"),
		product(240, 480, color.NRGBA{R: 30, G: 120, B: 200, A: 255}, image.Rect(80, 40, 160, 460)))

	// Very bright subject (PNG, 300x300): darkened.
	writeImage(filepath.Join(dir, "cloth.png"),
		product(300, 300, color.NRGBA{R: 245, G: 240, B: 220, A: 255}, image.Rect(40, 40, 260, 260)))

	// Corrupt file with an image extension: decode failure.
	os.WriteFile(filepath.Join(dir, "corrupt.jpeg"), []byte("not really a jpeg"), 0o644)

	// Ignored by the scanner.
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("fixtures"), 0o644)

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 4 fixtures in %s\n", dir)
}

// product draws a rounded-off subject on a soft gray gradient backdrop.
func product(w, h int, fg color.NRGBA, box image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	cx := float64(box.Min.X+box.Max.X) / 2
	cy := float64(box.Min.Y+box.Max.Y) / 2
	rx := float64(box.Dx()) / 2
	ry := float64(box.Dy()) / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			bg := uint8(235 - y*20/h)
			c := color.NRGBA{R: bg, G: bg, B: bg, A: 255}
			dx := (float64(x) - cx) / rx
			dy := (float64(y) - cy) / ry
			if dx*dx+dy*dy <= 1 {
				c = fg
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func writeImage(path string, img *image.NRGBA) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		panic(err)
	}
}

func writeJPEG(path string, img *image.NRGBA) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
}
