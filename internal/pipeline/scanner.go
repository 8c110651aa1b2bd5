package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// OutputPrefix is prepended to every input file name to name its output.
const OutputPrefix = "bg_removed_"

// Source represents a discovered image file.
type Source struct {
	// AbsPath is the absolute path to the file on disk.
	AbsPath string
	// Name is the file name inside the input directory.
	Name string
	// Format is the source format (png, jpeg, webp).
	Format string
	// Size is the file size in bytes.
	Size int64
}

// OutputName returns the output file name for src.
func (s Source) OutputName() string {
	return OutputPrefix + s.Name
}

// imageExtensions lists recognized image file extensions.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// PrepareInput creates inputDir if it does not exist and scans it.
// A missing folder therefore yields no sources rather than an error.
func PrepareInput(inputDir string) ([]Source, error) {
	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		return nil, err
	}
	return ScanImages(inputDir)
}

// ScanImages lists the image files directly inside inputDir, sorted by
// name. Only the extension is checked, so dot-files such as ".a.png" are
// included. Subdirectories are skipped.
func ScanImages(inputDir string) ([]Source, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, err
	}

	var sources []Source
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(name))
		if !imageExtensions[ext] {
			continue
		}

		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		if !info.Mode().IsRegular() {
			continue
		}

		// Normalize format name.
		format := strings.TrimPrefix(ext, ".")
		if format == "jpg" {
			format = "jpeg"
		}

		sources = append(sources, Source{
			AbsPath: filepath.Join(inputDir, name),
			Name:    name,
			Format:  format,
			Size:    info.Size(),
		})
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	return sources, nil
}
