package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/AnyUserName/cutout/internal/compose"
	"github.com/AnyUserName/cutout/internal/enhance"
	"github.com/AnyUserName/cutout/internal/report"
	"github.com/AnyUserName/cutout/internal/segment"
	"github.com/disintegration/imaging"

	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when input bytes are not a valid raster image.
var ErrDecode = errors.New("decode failed")

// Error kinds recorded in results and reports.
const (
	KindDecode         = "decode"
	KindSegmentation   = "segmentation"
	KindInvalidSubject = "invalid_subject"
	KindIO             = "io"
)

// Kind classifies a processing error. It returns "" for nil.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, segment.ErrSegmentation):
		return KindSegmentation
	case errors.Is(err, compose.ErrInvalidSubject):
		return KindInvalidSubject
	default:
		return KindIO
	}
}

// Output is the in-memory result of transforming one image.
type Output struct {
	Image       *image.NRGBA // opaque, compose.CanvasSize square
	Original    image.Point  // size of the segmented image
	Layout      compose.Layout
	Adjustments enhance.Adjustments
}

// Transform runs one image through segmentation, enhancement and
// composition. ctx bounds the segmentation call only.
func Transform(ctx context.Context, seg segment.Segmenter, data []byte) (Output, error) {
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return Output{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	cut, err := seg.Segment(ctx, data)
	if err != nil {
		if !errors.Is(err, segment.ErrSegmentation) {
			err = fmt.Errorf("%w: %w", segment.ErrSegmentation, err)
		}
		return Output{}, err
	}

	decoded, _, err := image.Decode(bytes.NewReader(cut))
	if err != nil {
		return Output{}, fmt.Errorf("%w: decode cutout: %v", segment.ErrSegmentation, err)
	}
	rgba := imaging.Clone(decoded)

	// Enhancement measures and adjusts the RGB derivative; geometry and the
	// paste mask come from the untouched alpha channel.
	enhanced, adj := enhance.Enhance(enhance.Opaque(rgba))
	final, lay, err := compose.Compose(rgba, enhanced)
	if err != nil {
		return Output{}, err
	}

	return Output{
		Image:       final,
		Original:    rgba.Rect.Size(),
		Layout:      lay,
		Adjustments: adj,
	}, nil
}

// Result is the outcome of processing a single source image.
type Result struct {
	Source     Source
	OutputPath string // empty on failure
	OutputSize int64
	InputHash  string
	OutputHash string
	Output     Output // zero on failure; Output.Image is released after encoding
	Err        error
}

// OK reports whether an output file was written.
func (r Result) OK() bool { return r.Err == nil }

// Entry converts r into a report entry.
func (r Result) Entry() report.Entry {
	e := report.Entry{
		Source:    r.Source.Name,
		InputSize: r.Source.Size,
		InputHash: r.InputHash,
	}
	if r.Err != nil {
		e.Status = report.StatusFailed
		e.ErrorKind = Kind(r.Err)
		e.Error = r.Err.Error()
		return e
	}

	lay := r.Output.Layout
	adj := r.Output.Adjustments
	e.Status = report.StatusOK
	e.Output = r.Source.OutputName()
	e.OutputSize = r.OutputSize
	e.OutputHash = r.OutputHash
	e.Original = &report.Dimensions{Width: r.Output.Original.X, Height: r.Output.Original.Y}
	e.Subject = &report.Placement{
		BBox:    [4]int{lay.Box.Min.X, lay.Box.Min.Y, lay.Box.Max.X, lay.Box.Max.Y},
		Scale:   lay.Scale,
		Resized: report.Dimensions{Width: lay.Size.X, Height: lay.Size.Y},
		Offset:  [2]int{lay.Offset.X, lay.Offset.Y},
	}
	e.Adjustments = &report.Adjustments{
		Brightness:       adj.Stats.Brightness(),
		ColorIntensity:   adj.Stats.ColorIntensity(),
		BrightnessFactor: adj.Brightness,
		ColorFactor:      adj.Color,
		ContrastFactor:   adj.Contrast,
		SharpnessFactor:  adj.Sharpness,
	}
	return e
}
