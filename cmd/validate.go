package cmd

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"os"
	"path/filepath"

	"github.com/AnyUserName/cutout/internal/compose"
	"github.com/AnyUserName/cutout/internal/hasher"
	"github.com/AnyUserName/cutout/internal/report"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <report_path>",
	Short: "Validate a run report and check every output file",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	rep, err := report.ReadJSON(args[0])
	if err != nil {
		return err
	}

	errs := validateReport(rep)
	if len(errs) == 0 {
		fmt.Println("  ✓ Report is valid")
		fmt.Printf("  ✓ %d images, %d outputs, all files present\n", rep.Stats.TotalImages, rep.Stats.Succeeded)
		return nil
	}

	fmt.Printf("  ✗ Report has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Printf("    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}

func validateReport(rep *report.Report) []string {
	var errs []string

	if rep.Version != report.SupportedVersion {
		errs = append(errs, fmt.Sprintf("unsupported report version: %d", rep.Version))
	}

	seenOutputs := map[string]bool{}
	var ok, failed int
	for i, e := range rep.Entries {
		name := e.Source
		if name == "" {
			name = fmt.Sprintf("entry[%d]", i)
			errs = append(errs, fmt.Sprintf("%s: missing source", name))
		}

		switch e.Status {
		case report.StatusFailed:
			failed++
			if e.ErrorKind == "" {
				errs = append(errs, fmt.Sprintf("%s: failed without error kind", name))
			}
			continue
		case report.StatusOK:
			ok++
		default:
			errs = append(errs, fmt.Sprintf("%s: unknown status %q", name, e.Status))
			continue
		}

		if e.Output == "" {
			errs = append(errs, fmt.Sprintf("%s: missing output", name))
			continue
		}
		if seenOutputs[e.Output] {
			errs = append(errs, fmt.Sprintf("%s: duplicate output %q", name, e.Output))
		}
		seenOutputs[e.Output] = true

		if s := e.Subject; s != nil {
			if s.Resized.Width > compose.Interior || s.Resized.Height > compose.Interior {
				errs = append(errs, fmt.Sprintf("%s: subject %dx%d exceeds the %d px interior",
					name, s.Resized.Width, s.Resized.Height, compose.Interior))
			}
			if s.Offset[0] != (compose.CanvasSize-s.Resized.Width)/2 ||
				s.Offset[1] != (compose.CanvasSize-s.Resized.Height)/2 {
				errs = append(errs, fmt.Sprintf("%s: subject not centered: offset %v", name, s.Offset))
			}
		}

		errs = append(errs, checkOutputFile(rep.OutputDir, name, e)...)
	}

	// Verify stats consistency.
	if rep.Stats.TotalImages != len(rep.Entries) {
		errs = append(errs, fmt.Sprintf("stats.total_images mismatch: %d != %d", rep.Stats.TotalImages, len(rep.Entries)))
	}
	if rep.Stats.Succeeded != ok {
		errs = append(errs, fmt.Sprintf("stats.succeeded mismatch: %d != %d", rep.Stats.Succeeded, ok))
	}
	if rep.Stats.Failed != failed {
		errs = append(errs, fmt.Sprintf("stats.failed mismatch: %d != %d", rep.Stats.Failed, failed))
	}

	return errs
}

// checkOutputFile verifies the file on disk against its entry.
func checkOutputFile(dir, name string, e report.Entry) []string {
	path := filepath.Join(dir, e.Output)
	f, err := os.Open(path)
	if err != nil {
		return []string{fmt.Sprintf("%s: output not found: %s", name, e.Output)}
	}
	defer f.Close()

	var errs []string
	info, err := f.Stat()
	if err == nil && e.OutputSize > 0 && info.Size() != e.OutputSize {
		errs = append(errs, fmt.Sprintf("%s: size mismatch: report=%d, disk=%d", name, e.OutputSize, info.Size()))
	}

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return append(errs, fmt.Sprintf("%s: output is not an image: %v", name, err))
	}
	if cfg.Width != compose.CanvasSize || cfg.Height != compose.CanvasSize {
		errs = append(errs, fmt.Sprintf("%s: output is %dx%d, want %dx%d",
			name, cfg.Width, cfg.Height, compose.CanvasSize, compose.CanvasSize))
	}

	if e.OutputHash != "" {
		if _, err := f.Seek(0, 0); err == nil {
			sum, err := hasher.ContentHashReader(f, len(e.OutputHash))
			if err == nil && sum != e.OutputHash {
				errs = append(errs, fmt.Sprintf("%s: hash mismatch: report=%s, disk=%s", name, e.OutputHash, sum))
			}
		}
	}
	return errs
}
