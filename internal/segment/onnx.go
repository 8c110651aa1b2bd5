package segment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"os"
	"sync"

	"github.com/AnyUserName/cutout/internal/encoder"
	ort "github.com/yalue/onnxruntime_go"

	_ "golang.org/x/image/webp"
)

// ONNX runs a U²-Net style saliency model in-process through onnxruntime.
// The model must take a 1×3×320×320 float32 input; its first output is used
// as the saliency map.
type ONNX struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	ownsEnv bool
	png     encoder.PNGEncoder
}

// NewONNX loads modelPath. libPath overrides the onnxruntime shared library
// location; empty uses the library's default search.
func NewONNX(modelPath, libPath string) (*ONNX, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s: %w", modelPath, err)
	}
	if libPath != "" {
		if _, err := os.Stat(libPath); err != nil {
			return nil, fmt.Errorf("onnxruntime library not found at %s: %w", libPath, err)
		}
		ort.SetSharedLibraryPath(libPath)
	}

	s := &ONNX{}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
		s.ownsEnv = true
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("inspect model: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		s.Close()
		return nil, errors.New("model has no inputs or outputs")
	}

	s.input, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 3, inputSize, inputSize))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	s.output, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 1, inputSize, inputSize))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	s.session, err = ort.NewAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name},
		[]ort.Value{s.input}, []ort.Value{s.output}, nil)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

func (s *ONNX) Name() string { return "onnx" }

// Segment decodes data, predicts a mask and returns the cutout as PNG.
// The context is checked before inference; a running inference is not
// interruptible.
func (s *ONNX) Segment(ctx context.Context, data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, failf("decode input: %v", err)
	}
	b := img.Bounds()

	s.mu.Lock()
	tensorize(img, s.input.GetData())
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrSegmentation, err)
	}
	err = s.session.Run()
	var mask *image.Gray
	if err == nil {
		mask = maskFromPrediction(s.output.GetData(), inputSize, b.Dx(), b.Dy())
	}
	s.mu.Unlock()
	if err != nil {
		return nil, failf("run model: %v", err)
	}

	out, err := s.png.Encode(applyMask(img, mask))
	if err != nil {
		return nil, failf("encode cutout: %v", err)
	}
	return out, nil
}

// Close destroys the session and tensors, and the onnxruntime environment
// if this segmenter created it.
func (s *ONNX) Close() error {
	var errs []error
	if s.session != nil {
		errs = append(errs, s.session.Destroy())
		s.session = nil
	}
	if s.input != nil {
		errs = append(errs, s.input.Destroy())
		s.input = nil
	}
	if s.output != nil {
		errs = append(errs, s.output.Destroy())
		s.output = nil
	}
	if s.ownsEnv {
		errs = append(errs, ort.DestroyEnvironment())
		s.ownsEnv = false
	}
	return errors.Join(errs...)
}
