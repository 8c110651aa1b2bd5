package segment

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Command removes backgrounds by shelling out to the rembg CLI:
//
//	rembg i -m <model> <src> <dst>
//
// Install: pip install "rembg[cli]"
type Command struct {
	Binary string
	// Model is a rembg model name, or a path to an .onnx file whose directory
	// becomes U2NET_HOME and whose base name selects the model.
	Model string

	once sync.Once
	path string
}

// NewCommand returns a Command for binary (default "rembg") and model
// (default "u2net").
func NewCommand(binary, model string) *Command {
	if binary == "" {
		binary = "rembg"
	}
	if model == "" {
		model = "u2net"
	}
	return &Command{Binary: binary, Model: model}
}

func (c *Command) Name() string { return "rembg" }

func (c *Command) Close() error { return nil }

// Available reports whether the binary can be found.
func (c *Command) Available() bool {
	c.once.Do(func() {
		if path, err := exec.LookPath(c.Binary); err == nil {
			c.path = path
		}
	})
	return c.path != ""
}

// modelArgs splits Model into the -m name and an optional U2NET_HOME.
func (c *Command) modelArgs() (name, home string) {
	if strings.EqualFold(filepath.Ext(c.Model), ".onnx") {
		base := filepath.Base(c.Model)
		return strings.TrimSuffix(base, filepath.Ext(base)), filepath.Dir(c.Model)
	}
	return c.Model, ""
}

func (c *Command) Segment(ctx context.Context, data []byte) ([]byte, error) {
	if !c.Available() {
		return nil, failf("%s not found in PATH", c.Binary)
	}

	dir, err := os.MkdirTemp("", "cutout_*")
	if err != nil {
		return nil, fmt.Errorf("create temp: %w", err)
	}
	defer os.RemoveAll(dir)

	// rembg sniffs the input format, so the source extension is irrelevant.
	srcPath := filepath.Join(dir, "src")
	dstPath := filepath.Join(dir, "dst.png")
	if err := os.WriteFile(srcPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp: %w", err)
	}

	name, home := c.modelArgs()
	cmd := exec.CommandContext(ctx, c.path, "i", "-m", name, srcPath, dstPath)
	cmd.WaitDelay = time.Second
	if home != "" {
		cmd.Env = append(os.Environ(), "U2NET_HOME="+home)
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrSegmentation, c.Binary, ctx.Err())
		}
		return nil, failf("%s: %v: %s", c.Binary, err, strings.TrimSpace(string(out)))
	}

	res, err := os.ReadFile(dstPath)
	if err != nil {
		return nil, failf("read %s output: %v", c.Binary, err)
	}
	if len(res) == 0 {
		return nil, failf("%s produced an empty file", c.Binary)
	}
	return res, nil
}
