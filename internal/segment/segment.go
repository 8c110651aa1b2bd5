// Package segment isolates the subject of a photograph. A Segmenter takes raw
// encoded image bytes and returns encoded bytes whose alpha channel masks out
// the background.
package segment

import (
	"context"
	"errors"
	"fmt"

	"github.com/AnyUserName/cutout/internal/config"
)

// ErrSegmentation wraps every failure to produce a usable cutout.
var ErrSegmentation = errors.New("segmentation failed")

// Segmenter removes the background from an encoded image.
type Segmenter interface {
	// Name identifies the implementation in logs and reports.
	Name() string

	// Segment returns an encoded image with an alpha channel.
	Segment(ctx context.Context, data []byte) ([]byte, error)

	// Close releases any resources held by the segmenter.
	Close() error
}

// New builds the segmenter selected by cfg.
func New(cfg config.Segmenter) (Segmenter, error) {
	switch cfg.Kind {
	case config.SegmenterCommand:
		c := NewCommand(cfg.Binary, cfg.Model)
		if !c.Available() {
			return nil, fmt.Errorf("%s not found in PATH; install with: pip install \"rembg[cli]\"", c.Binary)
		}
		return c, nil
	case config.SegmenterONNX:
		return NewONNX(cfg.Model, cfg.RuntimeLibrary)
	default:
		return nil, fmt.Errorf("unknown segmenter %q", cfg.Kind)
	}
}

func failf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSegmentation, fmt.Sprintf(format, args...))
}
