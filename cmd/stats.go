package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/AnyUserName/cutout/internal/report"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <report_path>",
	Short: "Display statistics for a run report",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ *cobra.Command, args []string) error {
	path := args[0]

	// If path is a directory, look for the default report name inside.
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, report.DefaultName)
	}

	rep, err := report.ReadJSON(path)
	if err != nil {
		return err
	}
	printStats(os.Stdout, rep)
	return nil
}

// factorKey labels a brightness/color factor pair.
func factorKey(a *report.Adjustments) string {
	return fmt.Sprintf("brightness×%.1f color×%.1f", a.BrightnessFactor, a.ColorFactor)
}

func printStats(w io.Writer, rep *report.Report) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Report version: %d\n", rep.Version)
	fmt.Fprintf(w, "  Generated:      %s\n", rep.GeneratedAt)
	fmt.Fprintf(w, "  Run:            %s\n", rep.RunID)
	fmt.Fprintf(w, "  Segmenter:      %s\n", rep.Segmenter)
	fmt.Fprintln(w)

	s := rep.Stats
	fmt.Fprintf(w, "  Total images:   %d\n", s.TotalImages)
	fmt.Fprintf(w, "  Succeeded:      %d\n", s.Succeeded)
	fmt.Fprintf(w, "  Failed:         %d\n", s.Failed)
	fmt.Fprintf(w, "  Input size:     %s\n", formatBytes(s.TotalInputBytes))
	fmt.Fprintf(w, "  Output size:    %s\n", formatBytes(s.TotalOutputBytes))
	fmt.Fprintln(w)

	if len(s.FailuresByKind) > 0 {
		var kinds []string
		for k := range s.FailuresByKind {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		fmt.Fprintln(w, "  Failures by kind:")
		for _, k := range kinds {
			fmt.Fprintf(w, "    %-16s %4d\n", k, s.FailuresByKind[k])
		}
		fmt.Fprintln(w)
	}

	// Adjustment breakdown.
	counts := map[string]int{}
	for _, e := range rep.Entries {
		if e.Adjustments != nil {
			counts[factorKey(e.Adjustments)]++
		}
	}
	if len(counts) > 0 {
		var keys []string
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w, "  Adjustments:")
		for _, k := range keys {
			fmt.Fprintf(w, "    %-28s %4d images\n", k, counts[k])
		}
		fmt.Fprintln(w)
	}

	// Smallest subjects relative to the frame.
	type subject struct {
		name string
		area int
	}
	var subjects []subject
	for _, e := range rep.Entries {
		if e.Subject != nil {
			subjects = append(subjects, subject{e.Source, e.Subject.Resized.Width * e.Subject.Resized.Height})
		}
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].area < subjects[j].area })
	n := min(len(subjects), 5)
	if n > 0 {
		fmt.Fprintf(w, "  Smallest %d subjects (area on canvas):\n", n)
		for _, sub := range subjects[:n] {
			fmt.Fprintf(w, "    %-32s %6.1f%%\n", truncName(sub.name, 32), float64(sub.area)/1e4)
		}
		fmt.Fprintln(w)
	}
}
