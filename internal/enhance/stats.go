package enhance

import "image"

// Stats holds per-channel means over every pixel of an image.
type Stats struct {
	Mean  [3]float64
	Count int
}

// Brightness is the channel 0 (red) mean, used as the brightness proxy.
func (s Stats) Brightness() float64 { return s.Mean[0] }

// ColorIntensity is the channel 1 (green) mean, used as the saturation proxy.
func (s Stats) ColorIntensity() float64 { return s.Mean[1] }

// Measure computes the channel means of img. Alpha is ignored.
func Measure(img *image.NRGBA) Stats {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w <= 0 || h <= 0 {
		return Stats{}
	}
	var sum [3]uint64
	for y := 0; y < h; y++ {
		i := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		for x := 0; x < w; x++ {
			sum[0] += uint64(img.Pix[i+0])
			sum[1] += uint64(img.Pix[i+1])
			sum[2] += uint64(img.Pix[i+2])
			i += 4
		}
	}
	n := w * h
	return Stats{
		Mean: [3]float64{
			float64(sum[0]) / float64(n),
			float64(sum[1]) / float64(n),
			float64(sum[2]) / float64(n),
		},
		Count: n,
	}
}

// MeanLuma returns the mean of the per-pixel luma of img.
func MeanLuma(img *image.NRGBA) float64 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w <= 0 || h <= 0 {
		return 0
	}
	var sum uint64
	for y := 0; y < h; y++ {
		i := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		for x := 0; x < w; x++ {
			sum += uint64(luma(img.Pix[i], img.Pix[i+1], img.Pix[i+2]))
			i += 4
		}
	}
	return float64(sum) / float64(w*h)
}
