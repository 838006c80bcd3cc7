package vision

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	"gocv.io/x/gocv"

	"attest/internal/liveness"
	"attest/pkg/platform/sentinel"
)

const classifierInputSize = 128

// SpoofClassifier runs the two-class anti-spoofing network (fake=0, real=1).
type SpoofClassifier struct {
	mu  sync.Mutex
	net gocv.Net
}

func NewSpoofClassifier(modelPath string) (*SpoofClassifier, error) {
	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("%w: liveness model %s", sentinel.ErrModelUnavailable, modelPath)
	}
	return &SpoofClassifier{net: net}, nil
}

// Infer returns per-class (class, confidence) pairs, most confident first.
func (c *SpoofClassifier) Infer(ctx context.Context, frame image.Image) ([]liveness.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("vision: convert frame: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat,
		1.0/255.0,
		image.Pt(classifierInputSize, classifierInputSize),
		gocv.NewScalar(0, 0, 0, 0),
		true, false)
	defer blob.Close()

	c.mu.Lock()
	c.net.SetInput(blob, "")
	output := c.net.Forward("")
	c.mu.Unlock()
	defer output.Close()

	fake := float64(output.GetFloatAt(0, liveness.ClassFake))
	real := float64(output.GetFloatAt(0, liveness.ClassReal))
	pFake, pReal := softmax2(fake, real)

	if pReal >= pFake {
		return []liveness.Prediction{
			{Class: liveness.ClassReal, Confidence: pReal},
			{Class: liveness.ClassFake, Confidence: pFake},
		}, nil
	}
	return []liveness.Prediction{
		{Class: liveness.ClassFake, Confidence: pFake},
		{Class: liveness.ClassReal, Confidence: pReal},
	}, nil
}

func (c *SpoofClassifier) Close() error {
	return c.net.Close()
}

func softmax2(a, b float64) (float64, float64) {
	m := math.Max(a, b)
	ea, eb := math.Exp(a-m), math.Exp(b-m)
	sum := ea + eb
	return ea / sum, eb / sum
}
