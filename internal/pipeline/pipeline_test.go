package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/AnyUserName/cutout/internal/compose"
	"github.com/AnyUserName/cutout/internal/config"
	"github.com/AnyUserName/cutout/internal/logger"
	"github.com/AnyUserName/cutout/internal/report"
	"github.com/AnyUserName/cutout/internal/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keySegmenter treats near-white pixels as background. A pure black
// top-left pixel makes it fail, standing in for a model that finds nothing.
type keySegmenter struct {
	delay time.Duration
}

func (s *keySegmenter) Name() string { return "key" }
func (s *keySegmenter) Close() error { return nil }

func (s *keySegmenter) Segment(ctx context.Context, data []byte) ([]byte, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if r, g, bl, _ := img.At(b.Min.X, b.Min.Y).RGBA(); r == 0 && g == 0 && bl == 0 {
		return nil, errors.New("no subject found")
	}

	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			if c.R > 240 && c.G > 240 && c.B > 240 {
				continue
			}
			out.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func subjectImage(w, h int, bg, fg color.NRGBA, box image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if image.Pt(x, y).In(box) {
				img.SetNRGBA(x, y, fg)
			} else {
				img.SetNRGBA(x, y, bg)
			}
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func writeJPEG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

var (
	white = color.NRGBA{255, 255, 255, 255}
	black = color.NRGBA{0, 0, 0, 255}
	red   = color.NRGBA{220, 30, 30, 255}
)

func newTestPipeline(t *testing.T, seg segment.Segmenter, timeout time.Duration) (*Pipeline, config.Config, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.InputDir = t.TempDir()
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.Timeout = timeout
	var logs bytes.Buffer
	return New(cfg, seg, logger.New(&logs, true)), cfg, &logs
}

func outputFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestRun_IsolatesFailures(t *testing.T) {
	p, cfg, logs := newTestPipeline(t, &keySegmenter{}, time.Minute)
	in := cfg.InputDir

	writePNG(t, filepath.Join(in, "good1.png"), subjectImage(300, 200, white, red, image.Rect(60, 40, 240, 160)))
	writeJPEG(t, filepath.Join(in, "good2.jpg"), subjectImage(120, 240, white, red, image.Rect(30, 20, 90, 220)))
	writePNG(t, filepath.Join(in, "white.png"), subjectImage(50, 50, white, white, image.Rectangle{}))
	writePNG(t, filepath.Join(in, "black.png"), subjectImage(50, 50, black, red, image.Rect(10, 10, 40, 40)))
	require.NoError(t, os.WriteFile(filepath.Join(in, "broken.jpg"), []byte("not an image"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("skip me"), 0o644))

	rep, err := p.Run(context.Background())
	require.NoError(t, err)

	// 5 inputs, 3 failures: exactly 2 outputs.
	assert.Equal(t, []string{"bg_removed_good1.png", "bg_removed_good2.jpg"}, outputFiles(t, cfg.OutputDir))
	assert.Equal(t, 5, rep.Stats.TotalImages)
	assert.Equal(t, 2, rep.Stats.Succeeded)
	assert.Equal(t, 3, rep.Stats.Failed)
	assert.Equal(t, map[string]int{
		KindDecode:         1,
		KindSegmentation:   1,
		KindInvalidSubject: 1,
	}, rep.Stats.FailuresByKind)

	kinds := map[string]string{}
	for _, e := range rep.Entries {
		kinds[e.Source] = e.ErrorKind
	}
	assert.Equal(t, map[string]string{
		"black.png":  KindSegmentation,
		"broken.jpg": KindDecode,
		"good1.png":  "",
		"good2.jpg":  "",
		"white.png":  KindInvalidSubject,
	}, kinds)

	for _, name := range []string{"black.png", "broken.jpg", "white.png", "good1.png", "good2.jpg"} {
		assert.Contains(t, logs.String(), `"file":"`+name+`"`)
	}
}

func TestRun_OutputIsFramedJPEG(t *testing.T) {
	p, cfg, _ := newTestPipeline(t, &keySegmenter{}, 0)
	writePNG(t, filepath.Join(cfg.InputDir, "wide.png"),
		subjectImage(300, 200, white, red, image.Rect(50, 50, 250, 150)))

	rep, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Entries, 1)
	e := rep.Entries[0]
	require.Equal(t, report.StatusOK, e.Status, e.Error)

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "bg_removed_wide.png"))
	require.NoError(t, err)
	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, image.Rect(0, 0, compose.CanvasSize, compose.CanvasSize), img.Bounds())

	assert.Equal(t, [4]int{50, 50, 250, 150}, e.Subject.BBox)
	assert.Equal(t, 926, e.Subject.Resized.Width)
	assert.Equal(t, 463, e.Subject.Resized.Height)
	assert.Equal(t, [2]int{37, 268}, e.Subject.Offset)
	assert.Equal(t, 300, e.Original.Width)
	assert.Equal(t, int64(len(data)), e.OutputSize)
	assert.Len(t, e.OutputHash, 16)

	// Corners stay white, the subject is reddish.
	r, g, b, _ := img.At(5, 5).RGBA()
	assert.Greater(t, int(r>>8), 250)
	assert.Greater(t, int(g>>8), 250)
	assert.Greater(t, int(b>>8), 250)
	r, g, _, _ = img.At(500, 500).RGBA()
	assert.Greater(t, int(r>>8), 150)
	assert.Less(t, int(g>>8), 100)
}

func TestRun_NoImages(t *testing.T) {
	p, cfg, logs := newTestPipeline(t, &keySegmenter{}, 0)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "readme.md"), []byte("#"), 0o644))

	rep, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.Entries)
	assert.Contains(t, logs.String(), "no images found")
	_, err = os.Stat(cfg.OutputDir)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_MissingInputIsCreated(t *testing.T) {
	p, cfg, logs := newTestPipeline(t, &keySegmenter{}, 0)
	require.NoError(t, os.RemoveAll(cfg.InputDir))

	rep, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.Entries)
	assert.Contains(t, logs.String(), "no images found")
	_, err = os.Stat(cfg.InputDir)
	assert.NoError(t, err)
}

func TestRun_Cancelled(t *testing.T) {
	p, cfg, _ := newTestPipeline(t, &keySegmenter{}, 0)
	writePNG(t, filepath.Join(cfg.InputDir, "a.png"), subjectImage(20, 20, white, red, image.Rect(5, 5, 15, 15)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rep.Entries)
}

func TestProcess_SegmentationTimeout(t *testing.T) {
	p, cfg, _ := newTestPipeline(t, &keySegmenter{delay: time.Minute}, 20*time.Millisecond)
	path := filepath.Join(cfg.InputDir, "slow.png")
	writePNG(t, path, subjectImage(20, 20, white, red, image.Rect(5, 5, 15, 15)))

	r := p.Process(context.Background(), Source{AbsPath: path, Name: "slow.png"})
	require.Error(t, r.Err)
	assert.False(t, r.OK())
	assert.Equal(t, KindSegmentation, Kind(r.Err))
	assert.ErrorIs(t, r.Err, context.DeadlineExceeded)
	assert.Empty(t, r.OutputPath)
}

func TestProcess_InvalidSubjectWritesNothing(t *testing.T) {
	p, cfg, _ := newTestPipeline(t, &keySegmenter{}, 0)
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))
	path := filepath.Join(cfg.InputDir, "blank.png")
	writePNG(t, path, subjectImage(30, 30, white, white, image.Rectangle{}))

	r := p.Process(context.Background(), Source{AbsPath: path, Name: "blank.png"})
	assert.ErrorIs(t, r.Err, compose.ErrInvalidSubject)
	assert.Empty(t, outputFiles(t, cfg.OutputDir))

	e := r.Entry()
	assert.Equal(t, report.StatusFailed, e.Status)
	assert.Equal(t, KindInvalidSubject, e.ErrorKind)
	assert.Nil(t, e.Subject)
}

func TestTransform_Square926(t *testing.T) {
	gray := color.NRGBA{150, 150, 150, 255}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, subjectImage(926, 926, gray, gray, image.Rectangle{})))

	out, err := Transform(context.Background(), &keySegmenter{}, buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, image.Pt(37, 37), out.Layout.Offset)
	assert.Equal(t, image.Pt(926, 926), out.Layout.Size)
	assert.Equal(t, 1.0, out.Layout.Scale)
	assert.Equal(t, 1.0, out.Adjustments.Brightness)
	assert.Equal(t, 1.0, out.Adjustments.Color)
	assert.Equal(t, gray, out.Image.NRGBAAt(37, 37))
	assert.Equal(t, gray, out.Image.NRGBAAt(500, 500))
	assert.Equal(t, white, out.Image.NRGBAAt(36, 500))
}

func TestTransform_DecodeFailure(t *testing.T) {
	_, err := Transform(context.Background(), &keySegmenter{}, []byte{0x89, 'P', 'N', 'G'})
	assert.ErrorIs(t, err, ErrDecode)
	assert.Equal(t, KindDecode, Kind(err))
}

func TestTransform_BadCutout(t *testing.T) {
	seg := segmentFunc(func([]byte) ([]byte, error) { return []byte("garbage"), nil })
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, subjectImage(4, 4, red, red, image.Rectangle{})))

	_, err := Transform(context.Background(), seg, buf.Bytes())
	assert.ErrorIs(t, err, segment.ErrSegmentation)
}

type segmentFunc func([]byte) ([]byte, error)

func (f segmentFunc) Name() string { return "func" }
func (f segmentFunc) Close() error { return nil }
func (f segmentFunc) Segment(_ context.Context, data []byte) ([]byte, error) {
	return f(data)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, KindIO, Kind(os.ErrNotExist))
	assert.Equal(t, KindSegmentation, Kind(segment.ErrSegmentation))
	assert.Equal(t, KindInvalidSubject, Kind(compose.ErrInvalidSubject))
}
