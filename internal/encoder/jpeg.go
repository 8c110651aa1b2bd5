package encoder

import (
	"bytes"
	"image"
	"image/jpeg"
)

// MaxQuality is the quality used for final output images.
const MaxQuality = 100

// JPEGEncoder encodes images to JPEG using Go's standard library.
// A zero Quality means MaxQuality.
type JPEGEncoder struct {
	Quality int
}

func (e *JPEGEncoder) Format() string { return "jpeg" }

func (e *JPEGEncoder) Encode(img image.Image) ([]byte, error) {
	quality := e.Quality
	if quality <= 0 || quality > 100 {
		quality = MaxQuality
	}

	var buf bytes.Buffer
	buf.Grow(512 * 1024) // a 1000×1000 frame at q100 is typically 300-600KB

	err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
