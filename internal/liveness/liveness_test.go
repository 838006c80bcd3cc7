package liveness

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClassifier struct {
	predictions []Prediction
	err         error
	gotWidth    int
	gotHeight   int
}

func (c *fakeClassifier) Infer(_ context.Context, frame image.Image) ([]Prediction, error) {
	c.gotWidth = frame.Bounds().Dx()
	c.gotHeight = frame.Bounds().Dy()
	return c.predictions, c.err
}

func frame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 1920, 1080))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		predictions []Prediction
		real        bool
		confidence  float64
	}{
		{
			name:        "confident real",
			predictions: []Prediction{{Class: ClassReal, Confidence: 0.93}},
			real:        true,
			confidence:  0.93,
		},
		{
			name:        "confident fake",
			predictions: []Prediction{{Class: ClassFake, Confidence: 0.88}},
			real:        false,
			confidence:  0.88,
		},
		{
			name: "first qualifying prediction decides",
			predictions: []Prediction{
				{Class: ClassFake, Confidence: 0.3},
				{Class: ClassReal, Confidence: 0.7},
				{Class: ClassFake, Confidence: 0.99},
			},
			real:       true,
			confidence: 0.7,
		},
		{
			name:        "below threshold fails closed",
			predictions: []Prediction{{Class: ClassReal, Confidence: 0.59}},
			real:        false,
			confidence:  0,
		},
		{
			name:        "no predictions fails closed",
			predictions: nil,
			real:        false,
			confidence:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDetector(&fakeClassifier{predictions: tt.predictions})
			require.NoError(t, err)

			verdict, err := d.Classify(context.Background(), frame())
			require.NoError(t, err)
			assert.Equal(t, tt.real, verdict.Real)
			assert.InDelta(t, tt.confidence, verdict.Confidence, 1e-9)
		})
	}
}

func TestClassify_DownscalesFrame(t *testing.T) {
	c := &fakeClassifier{predictions: []Prediction{{Class: ClassReal, Confidence: 0.9}}}
	d, err := NewDetector(c)
	require.NoError(t, err)

	_, err = d.Classify(context.Background(), frame())
	require.NoError(t, err)
	assert.LessOrEqual(t, c.gotWidth, 640)
	assert.LessOrEqual(t, c.gotHeight, 640)
}

func TestClassify_CustomThreshold(t *testing.T) {
	c := &fakeClassifier{predictions: []Prediction{{Class: ClassReal, Confidence: 0.5}}}
	d, err := NewDetector(c, WithThreshold(0.4))
	require.NoError(t, err)

	verdict, err := d.Classify(context.Background(), frame())
	require.NoError(t, err)
	assert.True(t, verdict.Real)
}

func TestClassify_ClassifierError(t *testing.T) {
	d, err := NewDetector(&fakeClassifier{err: errors.New("inference failed")})
	require.NoError(t, err)

	_, err = d.Classify(context.Background(), frame())
	assert.Error(t, err)
}

func TestNewDetector_NilClassifier(t *testing.T) {
	_, err := NewDetector(nil)
	assert.Error(t, err)
}
