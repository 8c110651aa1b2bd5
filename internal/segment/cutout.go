package segment

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// U²-Net input geometry and ImageNet normalisation.
const inputSize = 320

var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
)

// tensorize resizes img to inputSize×inputSize and writes it into dst as a
// 1×3×H×W planar tensor. Pixel values are scaled by the largest channel
// value of the resized image, then normalised per channel.
func tensorize(img image.Image, dst []float32) {
	small := imaging.Resize(img, inputSize, inputSize, imaging.Lanczos)

	var peak uint8
	for i := 0; i < len(small.Pix); i += 4 {
		peak = max(peak, small.Pix[i], small.Pix[i+1], small.Pix[i+2])
	}
	scale := float32(math.Max(float64(peak), 1e-6))

	plane := inputSize * inputSize
	for p := 0; p < plane; p++ {
		i := p * 4
		for c := 0; c < 3; c++ {
			v := float32(small.Pix[i+c]) / scale
			dst[c*plane+p] = (v - imagenetMean[c]) / imagenetStd[c]
		}
	}
}

// maskFromPrediction min-max normalises a side×side saliency map and scales
// it to w×h as an 8-bit mask.
func maskFromPrediction(pred []float32, side, w, h int) *image.Gray {
	lo, hi := float32(math.Inf(1)), float32(math.Inf(-1))
	for _, v := range pred {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo

	m := image.NewGray(image.Rect(0, 0, side, side))
	for i, v := range pred[:side*side] {
		n := float32(0)
		if span > 0 {
			n = (v - lo) / span
		}
		m.Pix[i] = uint8(n * 255)
	}
	if side == w && side == h {
		return m
	}

	scaled := imaging.Resize(m, w, h, imaging.Lanczos)
	out := image.NewGray(image.Rect(0, 0, w, h))
	for i := range out.Pix {
		out.Pix[i] = scaled.Pix[i*4]
	}
	return out
}

// applyMask composites img over a transparent background using mask, so
// color and alpha are both scaled by the mask value.
func applyMask(img image.Image, mask *image.Gray) *image.NRGBA {
	src := imaging.Clone(img)
	dst := image.NewNRGBA(src.Rect)
	for i := 0; i < len(src.Pix); i += 4 {
		a := uint32(mask.Pix[i/4])
		dst.Pix[i+0] = uint8(uint32(src.Pix[i+0]) * a / 255)
		dst.Pix[i+1] = uint8(uint32(src.Pix[i+1]) * a / 255)
		dst.Pix[i+2] = uint8(uint32(src.Pix[i+2]) * a / 255)
		dst.Pix[i+3] = uint8(uint32(src.Pix[i+3]) * a / 255)
	}
	return dst
}
