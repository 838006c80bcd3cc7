// Package liveness decides whether a camera frame shows a physically present
// person or a replayed photo/video. Absence of positive evidence is a
// rejection: the detector fails closed.
package liveness

import (
	"context"
	"errors"
	"image"
	"log/slog"

	"attest/internal/imgproc"
)

// Class labels emitted by the two-class spoofing model.
const (
	ClassFake = 0
	ClassReal = 1
)

// maxEdge bounds the frame size fed to the model. Downscaling is a
// performance measure only; it must not change decision semantics.
const maxEdge = 640

// DefaultConfidenceThreshold is a configurable default, not a calibrated
// constant; deployments should tune it to their camera and lighting.
const DefaultConfidenceThreshold = 0.6

// Prediction is one (class, confidence) pair from the classifier model.
type Prediction struct {
	Class      int
	Confidence float64
}

// Classifier is the black-box anti-spoofing capability. Loaded once at
// process start, safe for concurrent inference.
type Classifier interface {
	Infer(ctx context.Context, frame image.Image) ([]Prediction, error)
}

// Verdict is consumed immediately by the face matcher; it is never stored.
type Verdict struct {
	Real       bool
	Confidence float64
}

// Detector gates face comparison on a liveness verdict.
type Detector struct {
	classifier Classifier
	threshold  float64
	logger     *slog.Logger
}

type Option func(*Detector)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) { d.logger = logger }
}

// WithThreshold overrides the minimum confidence a prediction needs to decide
// the verdict.
func WithThreshold(t float64) Option {
	return func(d *Detector) { d.threshold = t }
}

func NewDetector(classifier Classifier, opts ...Option) (*Detector, error) {
	if classifier == nil {
		return nil, errors.New("liveness: classifier is required")
	}
	d := &Detector{
		classifier: classifier,
		threshold:  DefaultConfidenceThreshold,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Classify downscales and equalizes the frame, then takes the first
// prediction whose confidence reaches the threshold. No qualifying prediction
// means Real=false, never an inconclusive middle ground.
func (d *Detector) Classify(ctx context.Context, frame image.Image) (Verdict, error) {
	prepared := imgproc.EqualizeHist(imgproc.ToGray(imgproc.Downscale(frame, maxEdge)))

	predictions, err := d.classifier.Infer(ctx, prepared)
	if err != nil {
		return Verdict{}, err
	}

	for _, p := range predictions {
		if p.Confidence < d.threshold {
			continue
		}
		verdict := Verdict{Real: p.Class == ClassReal, Confidence: p.Confidence}
		d.logger.DebugContext(ctx, "liveness verdict",
			"real", verdict.Real, "confidence", verdict.Confidence)
		return verdict, nil
	}

	d.logger.DebugContext(ctx, "liveness verdict", "real", false,
		"reason", "no prediction above threshold")
	return Verdict{Real: false, Confidence: 0}, nil
}
