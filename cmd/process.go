package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/AnyUserName/cutout/internal/config"
	"github.com/AnyUserName/cutout/internal/pipeline"
	"github.com/AnyUserName/cutout/internal/report"
	"github.com/AnyUserName/cutout/internal/segment"
	"github.com/spf13/cobra"
)

var (
	processOutDir    string
	processConfig    string
	processSegmenter string
	processModel     string
	processORTLib    string
	processTimeout   time.Duration
	processReport    string
)

var processCmd = &cobra.Command{
	Use:   "process <input_dir>",
	Short: "Remove backgrounds and frame every image in a folder",
	Long: `Scans input_dir (not recursively) for png, jpg, jpeg and webp files. Each
image is segmented, tone-corrected and recentered on a 1000×1000 white
canvas, then written to the output folder as bg_removed_<name> (JPEG,
quality 100).

A failing image is reported and skipped; the rest of the batch continues.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	f := processCmd.Flags()
	f.StringVarP(&processOutDir, "out", "o", "", "output directory (default ./output)")
	f.StringVarP(&processConfig, "config", "c", "", "YAML config file")
	f.StringVar(&processSegmenter, "segmenter", "", "background remover: command (rembg CLI) or onnx")
	f.StringVarP(&processModel, "model", "m", "", "model name or .onnx path")
	f.StringVar(&processORTLib, "ort-lib", "", "onnxruntime shared library (onnx segmenter)")
	f.DurationVar(&processTimeout, "timeout", 0, "per-image segmentation timeout (default 2m)")
	f.StringVar(&processReport, "report", "", "write a JSON run report to this path (e.g. out/"+report.DefaultName+")")
	rootCmd.AddCommand(processCmd)
}

// resolveConfig layers defaults, the config file and flags.
func resolveConfig(cmd *cobra.Command, inputDir string) (config.Config, error) {
	cfg := config.Default()
	if processConfig != "" {
		var err error
		if cfg, err = config.Load(processConfig); err != nil {
			return cfg, err
		}
	}

	cfg.InputDir = inputDir
	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.OutputDir = processOutDir
	}
	if flags.Changed("segmenter") {
		cfg.Segmenter.Kind = processSegmenter
	}
	if flags.Changed("model") {
		cfg.Segmenter.Model = processModel
	}
	if flags.Changed("ort-lib") {
		cfg.Segmenter.RuntimeLibrary = processORTLib
	}
	if flags.Changed("timeout") {
		cfg.Timeout = processTimeout
	}
	if flags.Changed("report") {
		cfg.Report = processReport
	}

	// Resolve absolute paths.
	var err error
	if cfg.InputDir, err = filepath.Abs(cfg.InputDir); err != nil {
		return cfg, fmt.Errorf("resolve input path: %w", err)
	}
	if cfg.OutputDir, err = filepath.Abs(cfg.OutputDir); err != nil {
		return cfg, fmt.Errorf("resolve output path: %w", err)
	}
	return cfg, cfg.Validate()
}

func runProcess(cmd *cobra.Command, args []string) error {
	start := time.Now()

	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	log.Debug().
		Str("input", cfg.InputDir).
		Str("output", cfg.OutputDir).
		Str("segmenter", cfg.Segmenter.Kind).
		Str("model", cfg.Segmenter.Model).
		Dur("timeout", cfg.Timeout).
		Msg("config")

	// Scan first so an empty folder needs no working segmenter.
	sources, err := pipeline.PrepareInput(cfg.InputDir)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		log.Warn().Str("input", cfg.InputDir).Msg("no images found, check the input folder")
		rep := report.New(cfg.InputDir, cfg.OutputDir, cfg.Segmenter.Kind)
		if cfg.Report != "" {
			if err := report.WriteJSON(rep, cfg.Report); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
		}
		printProcessReport(rep, time.Since(start))
		return nil
	}

	seg, err := segment.New(cfg.Segmenter)
	if err != nil {
		return fmt.Errorf("segmenter: %w", err)
	}
	defer seg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rep, err := pipeline.New(cfg, seg, log).Run(ctx)
	if rep != nil && cfg.Report != "" {
		if werr := report.WriteJSON(rep, cfg.Report); werr != nil {
			return fmt.Errorf("write report: %w", werr)
		}
	}
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	printProcessReport(rep, time.Since(start))

	if rep.Stats.TotalImages > 0 && rep.Stats.Succeeded == 0 {
		return fmt.Errorf("all %d images failed to process", rep.Stats.TotalImages)
	}
	return nil
}

func printProcessReport(rep *report.Report, elapsed time.Duration) {
	s := rep.Stats
	fmt.Println()
	if s.TotalImages == 0 {
		fmt.Println("  No images found. Check the input folder.")
		fmt.Println()
		return
	}

	fmt.Printf("  Images:      %d\n", s.TotalImages)
	fmt.Printf("  Saved:       %d\n", s.Succeeded)
	if s.Failed > 0 {
		fmt.Printf("  Failed:      %d\n", s.Failed)
		for _, e := range rep.Entries {
			if e.Status == report.StatusFailed {
				fmt.Printf("    ✗ %-32s %s\n", truncName(e.Source, 32), e.ErrorKind)
			}
		}
	}
	fmt.Printf("  Input size:  %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size: %s\n", formatBytes(s.TotalOutputBytes))
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	fmt.Println()
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
