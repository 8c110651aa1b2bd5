// Package compose recenters a segmented subject on a fixed-size white canvas.
//
// The subject's bounding box is taken from the alpha channel, the subject is
// cropped to it, scaled uniformly to fit the canvas interior and pasted in the
// middle using its own alpha as the mask.
package compose

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

const (
	// CanvasSize is the width and height of every output image.
	CanvasSize = 1000
	// Margin is 1 cm at 96 dpi (37.8 px), truncated.
	Margin = 37
	// Interior is the largest side a subject may occupy.
	Interior = CanvasSize - 2*Margin
)

// ErrInvalidSubject is returned when an image has no pixel with non-zero
// alpha, so there is no subject to place.
var ErrInvalidSubject = errors.New("invalid subject: fully transparent image")

// Layout is the geometry chosen for one subject.
type Layout struct {
	// Box is the subject bounding box in source coordinates.
	Box image.Rectangle
	// Scale is the uniform scale factor applied to the cropped subject.
	Scale float64
	// Size is the resized subject size.
	Size image.Point
	// Offset is the top-left paste position on the canvas.
	Offset image.Point
}

// BoundingBox returns the smallest rectangle containing every pixel of img
// whose alpha is non-zero.
func BoundingBox(img *image.NRGBA) (image.Rectangle, error) {
	b := img.Rect
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y) + 3
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.Pix[i] != 0 {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				maxY = y
			}
			i += 4
		}
	}

	if maxX < minX || maxY < minY {
		return image.Rectangle{}, ErrInvalidSubject
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), nil
}

// Plan computes the layout for a subject occupying box. The limiting axis is
// scaled to exactly Interior pixels and the other axis is floored, so the
// aspect ratio is kept and the subject never leaves the interior.
func Plan(box image.Rectangle) Layout {
	w, h := box.Dx(), box.Dy()

	var nw, nh int
	if w >= h {
		nw = Interior
		nh = h * Interior / w
	} else {
		nh = Interior
		nw = w * Interior / h
	}
	nw = max(nw, 1)
	nh = max(nh, 1)

	return Layout{
		Box:    box,
		Scale:  math.Min(float64(Interior)/float64(w), float64(Interior)/float64(h)),
		Size:   image.Pt(nw, nh),
		Offset: image.Pt((CanvasSize-nw)/2, (CanvasSize-nh)/2),
	}
}

// Merge returns a copy of rgb carrying the alpha channel of mask. Both images
// must have the same size.
func Merge(rgb, mask *image.NRGBA) (*image.NRGBA, error) {
	if rgb.Rect.Size() != mask.Rect.Size() {
		return nil, fmt.Errorf("merge: size mismatch %v vs %v", rgb.Rect.Size(), mask.Rect.Size())
	}
	dst := imaging.Clone(rgb)
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	for y := 0; y < h; y++ {
		di := dst.PixOffset(0, y) + 3
		mi := mask.PixOffset(mask.Rect.Min.X, mask.Rect.Min.Y+y) + 3
		for x := 0; x < w; x++ {
			dst.Pix[di] = mask.Pix[mi]
			di += 4
			mi += 4
		}
	}
	return dst, nil
}

// Compose places the subject of segmented, colored with enhanced, on a white
// CanvasSize×CanvasSize canvas. The bounding box and paste mask come from the
// alpha channel of segmented; the colors come from enhanced. The returned
// image is fully opaque.
func Compose(segmented, enhanced *image.NRGBA) (*image.NRGBA, Layout, error) {
	box, err := BoundingBox(segmented)
	if err != nil {
		return nil, Layout{}, err
	}

	merged, err := Merge(enhanced, segmented)
	if err != nil {
		return nil, Layout{}, err
	}

	lay := Plan(box)
	subject := imaging.Crop(merged, box.Sub(segmented.Rect.Min))
	if subject.Rect.Size() != lay.Size {
		subject = imaging.Resize(subject, lay.Size.X, lay.Size.Y, imaging.Lanczos)
	}

	canvas := imaging.New(CanvasSize, CanvasSize, color.White)
	return imaging.Overlay(canvas, subject, lay.Offset, 1.0), lay, nil
}
