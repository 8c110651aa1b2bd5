package report

// Report is the JSON summary of one batch run.
type Report struct {
	Version     int     `json:"version"`
	GeneratedAt string  `json:"generated_at"`
	RunID       string  `json:"run_id"`
	InputDir    string  `json:"input_dir"`
	OutputDir   string  `json:"output_dir"`
	Segmenter   string  `json:"segmenter"`
	Entries     []Entry `json:"entries"`
	Stats       Stats   `json:"stats"`
}

// Entry statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Entry describes the outcome for a single source image.
type Entry struct {
	Source     string `json:"source"`           // input file name
	Output     string `json:"output,omitempty"` // output file name, relative to OutputDir
	Status     string `json:"status"`
	ErrorKind  string `json:"error_kind,omitempty"` // decode, segmentation, invalid_subject, io
	Error      string `json:"error,omitempty"`
	InputSize  int64  `json:"input_size"`
	OutputSize int64  `json:"output_size,omitempty"`
	InputHash  string `json:"input_hash,omitempty"`  // first 16 hex chars of xxhash64
	OutputHash string `json:"output_hash,omitempty"` // first 16 hex chars of xxhash64

	Original    *Dimensions  `json:"original,omitempty"`
	Subject     *Placement   `json:"subject,omitempty"`
	Adjustments *Adjustments `json:"adjustments,omitempty"`
}

// Dimensions is a width/height pair.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Placement records where the subject ended up on the canvas.
type Placement struct {
	BBox    [4]int     `json:"bbox"` // left, top, right, bottom in the source
	Scale   float64    `json:"scale"`
	Resized Dimensions `json:"resized"`
	Offset  [2]int     `json:"offset"` // paste x, y
}

// Adjustments records the measured statistics and chosen factors.
type Adjustments struct {
	Brightness       float64 `json:"brightness"`      // channel 0 mean
	ColorIntensity   float64 `json:"color_intensity"` // channel 1 mean
	BrightnessFactor float64 `json:"brightness_factor"`
	ColorFactor      float64 `json:"color_factor"`
	ContrastFactor   float64 `json:"contrast_factor"`
	SharpnessFactor  float64 `json:"sharpness_factor"`
}

// Stats aggregates run metrics.
type Stats struct {
	TotalImages      int            `json:"total_images"`
	Succeeded        int            `json:"succeeded"`
	Failed           int            `json:"failed"`
	FailuresByKind   map[string]int `json:"failures_by_kind,omitempty"`
	TotalInputBytes  int64          `json:"total_input_bytes"`
	TotalOutputBytes int64          `json:"total_output_bytes"`
}

// SupportedVersion is the current schema version.
const SupportedVersion = 1

// DefaultName is the report file name looked up inside a directory.
const DefaultName = "cutout.report.json"
