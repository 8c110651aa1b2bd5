package encoder

import (
	"image"
)

// Encoder encodes an image to a specific format.
type Encoder interface {
	// Format returns the output format name (e.g. "jpeg", "png").
	Format() string

	// Encode converts the image to bytes.
	Encode(img image.Image) ([]byte, error)
}
