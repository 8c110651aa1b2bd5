// Package enhance measures channel statistics on an opaque image and applies
// threshold-driven tonal corrections: brightness, color saturation, contrast
// and sharpness, in that order.
//
// Every correction follows the same blend law: out = degenerate + F×(in −
// degenerate), clamped to [0,255] and truncated, where the degenerate image
// depends on the property being enhanced.
package enhance

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Decision thresholds and factors. Not configurable.
const (
	LowThreshold  = 100
	HighThreshold = 200

	BoostFactor = 1.5
	DampFactor  = 0.7

	ContrastFactor  = 1.1
	SharpnessFactor = 1.2
)

// Adjustments records the statistics an image was measured with and the
// factors chosen from them.
type Adjustments struct {
	Stats      Stats
	Brightness float64
	Color      float64
	Contrast   float64
	Sharpness  float64
}

// thresholdFactor maps a channel mean to its correction factor.
func thresholdFactor(v float64) float64 {
	switch {
	case v < LowThreshold:
		return BoostFactor
	case v > HighThreshold:
		return DampFactor
	default:
		return 1.0
	}
}

// BrightnessFactor returns the brightness factor for a mean brightness value.
func BrightnessFactor(b float64) float64 { return thresholdFactor(b) }

// ColorFactor returns the saturation factor for a mean color intensity value.
func ColorFactor(c float64) float64 { return thresholdFactor(c) }

// Decide picks all four factors for the given statistics.
func Decide(s Stats) Adjustments {
	return Adjustments{
		Stats:      s,
		Brightness: BrightnessFactor(s.Brightness()),
		Color:      ColorFactor(s.ColorIntensity()),
		Contrast:   ContrastFactor,
		Sharpness:  SharpnessFactor,
	}
}

// Enhance measures img and returns a new, corrected image together with the
// adjustments that were applied. img is not modified.
func Enhance(img *image.NRGBA) (*image.NRGBA, Adjustments) {
	adj := Decide(Measure(img))

	out := img
	if adj.Brightness != 1 {
		out = Brightness(out, adj.Brightness)
	}
	if adj.Color != 1 {
		out = Color(out, adj.Color)
	}
	out = Contrast(out, adj.Contrast)
	out = Sharpness(out, adj.Sharpness)
	return out, adj
}

// Opaque returns the RGB derivative of img: straight color values are kept
// and every pixel's alpha is forced to 255. The result is zero-based.
func Opaque(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// Brightness blends img with black.
func Brightness(img *image.NRGBA, factor float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: blend(0, c.R, factor),
			G: blend(0, c.G, factor),
			B: blend(0, c.B, factor),
			A: c.A,
		}
	})
}

// Color blends img with its own per-pixel luma, scaling saturation.
func Color(img *image.NRGBA, factor float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		l := luma(c.R, c.G, c.B)
		return color.NRGBA{
			R: blend(l, c.R, factor),
			G: blend(l, c.G, factor),
			B: blend(l, c.B, factor),
			A: c.A,
		}
	})
}

// Contrast blends img with a uniform gray at the image's rounded mean luma.
func Contrast(img *image.NRGBA, factor float64) *image.NRGBA {
	mean := uint8(MeanLuma(img) + 0.5)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: blend(mean, c.R, factor),
			G: blend(mean, c.G, factor),
			B: blend(mean, c.B, factor),
			A: c.A,
		}
	})
}

// Sharpness blends img with its smoothed version.
func Sharpness(img *image.NRGBA, factor float64) *image.NRGBA {
	smooth := Smooth(img)
	w, h := img.Rect.Dx(), img.Rect.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		si := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		di := dst.PixOffset(0, y)
		for x := 0; x < w; x++ {
			dst.Pix[di+0] = blend(smooth.Pix[di+0], img.Pix[si+0], factor)
			dst.Pix[di+1] = blend(smooth.Pix[di+1], img.Pix[si+1], factor)
			dst.Pix[di+2] = blend(smooth.Pix[di+2], img.Pix[si+2], factor)
			dst.Pix[di+3] = img.Pix[si+3]
			si += 4
			di += 4
		}
	}
	return dst
}

// smoothKernel is the 3×3 smoothing kernel used as the sharpness baseline.
var smoothKernel = [9]float64{
	1, 1, 1,
	1, 5, 1,
	1, 1, 1,
}

// Smooth applies the normalized smoothing kernel to img. Pixels on the outer
// border are copied from img unchanged.
func Smooth(img *image.NRGBA) *image.NRGBA {
	dst := imaging.Convolve3x3(img, smoothKernel, &imaging.ConvolveOptions{Normalize: true})
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if y != 0 && y != h-1 && x != 0 && x != w-1 {
				continue
			}
			si := img.PixOffset(img.Rect.Min.X+x, img.Rect.Min.Y+y)
			di := dst.PixOffset(x, y)
			copy(dst.Pix[di:di+4], img.Pix[si:si+4])
		}
	}
	return dst
}

func blend(degenerate, v uint8, factor float64) uint8 {
	f := float64(degenerate) + factor*(float64(v)-float64(degenerate))
	switch {
	case f <= 0:
		return 0
	case f >= 255:
		return 255
	}
	return uint8(f)
}

// luma is the ITU-R 601-2 transform in 16.16 fixed point.
func luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*19595 + uint32(g)*38470 + uint32(b)*7471 + 0x8000) >> 16)
}
