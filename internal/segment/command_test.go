package segment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/AnyUserName/cutout/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRembg writes an executable shell script standing in for rembg.
func fakeRembg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "rembg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestCommand_Segment(t *testing.T) {
	// Arguments: i -m <model> <src> <dst>
	bin := fakeRembg(t, `[ "$1" = i ] && [ "$3" = u2net ] && cp "$4" "$5"`)
	c := NewCommand(bin, "")
	require.True(t, c.Available())

	out, err := c.Segment(context.Background(), []byte("pixels"))
	require.NoError(t, err)
	assert.Equal(t, []byte("pixels"), out)
}

func TestCommand_ModelFileSetsHome(t *testing.T) {
	bin := fakeRembg(t, `printf '%s|%s' "$U2NET_HOME" "$3" > "$5"`)
	c := NewCommand(bin, "/models/isnet-general-use.onnx")

	out, err := c.Segment(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "/models|isnet-general-use", string(out))
}

func TestCommand_Failure(t *testing.T) {
	bin := fakeRembg(t, `echo "no subject" >&2; exit 3`)
	_, err := NewCommand(bin, "").Segment(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSegmentation))
	assert.Contains(t, err.Error(), "no subject")
}

func TestCommand_EmptyOutput(t *testing.T) {
	bin := fakeRembg(t, `: > "$5"`)
	_, err := NewCommand(bin, "").Segment(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrSegmentation)
}

func TestCommand_Timeout(t *testing.T) {
	bin := fakeRembg(t, `exec sleep 5`)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := NewCommand(bin, "").Segment(ctx, []byte("x"))
	assert.ErrorIs(t, err, ErrSegmentation)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCommand_Unavailable(t *testing.T) {
	c := NewCommand(filepath.Join(t.TempDir(), "no-such-rembg"), "")
	assert.False(t, c.Available())

	_, err := c.Segment(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrSegmentation)
}

func TestNew(t *testing.T) {
	_, err := New(config.Segmenter{Kind: "magic"})
	assert.Error(t, err)

	_, err = New(config.Segmenter{Kind: config.SegmenterCommand, Binary: filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)

	_, err = New(config.Segmenter{Kind: config.SegmenterONNX, Model: filepath.Join(t.TempDir(), "u2net.onnx")})
	assert.Error(t, err, "missing model file")

	bin := fakeRembg(t, `cp "$4" "$5"`)
	s, err := New(config.Segmenter{Kind: config.SegmenterCommand, Binary: bin})
	require.NoError(t, err)
	assert.Equal(t, "rembg", s.Name())
	assert.NoError(t, s.Close())
}
