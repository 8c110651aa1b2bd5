// Package pipeline runs a batch of photographs through segmentation,
// enhancement and composition, one image at a time.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AnyUserName/cutout/internal/config"
	"github.com/AnyUserName/cutout/internal/encoder"
	"github.com/AnyUserName/cutout/internal/hasher"
	"github.com/AnyUserName/cutout/internal/report"
	"github.com/AnyUserName/cutout/internal/segment"
	"github.com/rs/zerolog"
)

// Pipeline orchestrates image processing for one run.
type Pipeline struct {
	cfg config.Config
	seg segment.Segmenter
	enc encoder.Encoder
	log zerolog.Logger
}

// New creates a pipeline. The segmenter is owned by the caller.
func New(cfg config.Config, seg segment.Segmenter, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg: cfg,
		seg: seg,
		enc: &encoder.JPEGEncoder{Quality: encoder.MaxQuality},
		log: log,
	}
}

// Run processes every image in the input directory and returns the run
// report. A failing image never stops the batch; its failure is logged and
// recorded. Run returns an error only when the batch itself cannot proceed,
// or when ctx is cancelled between images.
func (p *Pipeline) Run(ctx context.Context) (*report.Report, error) {
	sources, err := PrepareInput(p.cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	rep := report.New(p.cfg.InputDir, p.cfg.OutputDir, p.seg.Name())
	if len(sources) == 0 {
		p.log.Warn().Str("input", p.cfg.InputDir).Msg("no images found, check the input folder")
		return rep, nil
	}
	p.log.Debug().Int("images", len(sources)).Str("segmenter", p.seg.Name()).Msg("scan complete")

	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		p.log.Info().Str("file", src.Name).Msg("processing")
		r := p.Process(ctx, src)
		rep.Add(r.Entry())

		if r.Err != nil {
			p.log.Error().Err(r.Err).Str("file", src.Name).Str("kind", Kind(r.Err)).Msg("failed")
			continue
		}
		adj := r.Output.Adjustments
		p.log.Debug().
			Str("file", src.Name).
			Float64("brightness", adj.Stats.Brightness()).
			Float64("color_intensity", adj.Stats.ColorIntensity()).
			Float64("brightness_factor", adj.Brightness).
			Float64("color_factor", adj.Color).
			Msg("enhanced")
		p.log.Info().Str("file", src.Name).Str("output", r.OutputPath).Msg("saved")
	}

	p.log.Info().
		Int("succeeded", rep.Stats.Succeeded).
		Int("failed", rep.Stats.Failed).
		Msg("batch finished")
	return rep, nil
}

// Process reads, transforms and writes a single source image.
func (p *Pipeline) Process(ctx context.Context, src Source) Result {
	result := Result{Source: src}
	start := time.Now()

	data, err := os.ReadFile(src.AbsPath)
	if err != nil {
		result.Err = fmt.Errorf("read %s: %w", src.Name, err)
		return result
	}
	result.InputHash = hasher.ContentHash(data, hasher.HexLen)

	segCtx := ctx
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		segCtx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	out, err := Transform(segCtx, p.seg, data)
	if err != nil {
		result.Err = fmt.Errorf("%s: %w", src.Name, err)
		return result
	}

	encoded, err := p.enc.Encode(out.Image)
	if err != nil {
		result.Err = fmt.Errorf("encode %s: %w", src.Name, err)
		return result
	}

	outPath := filepath.Join(p.cfg.OutputDir, src.OutputName())
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		result.Err = fmt.Errorf("write %s: %w", outPath, err)
		return result
	}

	out.Image = nil
	result.Output = out
	result.OutputPath = outPath
	result.OutputSize = int64(len(encoded))
	result.OutputHash = hasher.ContentHash(encoded, hasher.HexLen)

	p.log.Debug().Str("file", src.Name).Dur("elapsed", time.Since(start)).Msg("processed")
	return result
}
