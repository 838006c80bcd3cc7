// Package facematch decides whether a live camera frame shows the same person
// as a reference image. Every comparison is gated by liveness: identity is
// never evaluated for a frame the anti-spoofing detector rejected.
package facematch

import (
	"context"
	"errors"
	"image"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"attest/internal/liveness"
	"attest/pkg/platform/sentinel"
)

// DefaultDistanceThreshold is a configurable default, not a calibrated
// constant; tune per deployment.
const DefaultDistanceThreshold = 0.6

// Matcher compares face encodings behind a liveness gate. Stateless across
// calls; one instance serves concurrent requests.
type Matcher struct {
	encoder   Encoder
	gate      LivenessGate
	threshold float64
	logger    *slog.Logger
}

type Option func(*Matcher)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) { m.logger = logger }
}

// WithThreshold overrides the match distance threshold.
func WithThreshold(t float64) Option {
	return func(m *Matcher) { m.threshold = t }
}

func NewMatcher(encoder Encoder, gate LivenessGate, opts ...Option) (*Matcher, error) {
	if encoder == nil {
		return nil, errors.New("facematch: encoder is required")
	}
	if gate == nil {
		return nil, errors.New("facematch: liveness gate is required")
	}
	m := &Matcher{
		encoder:   encoder,
		gate:      gate,
		threshold: DefaultDistanceThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// EncodeFace encodes the single face in img. Zero faces or more than one is
// always an error; the matcher never auto-selects a best face.
func (m *Matcher) EncodeFace(ctx context.Context, img image.Image) (Encoding, error) {
	encodings, err := m.encoder.Encode(ctx, img)
	if err != nil {
		return nil, err
	}
	switch len(encodings) {
	case 0:
		return nil, sentinel.ErrNoFaceDetected
	case 1:
		return encodings[0], nil
	default:
		return nil, sentinel.ErrMultipleFacesDetected
	}
}

// Compare runs the two-stage decision. The liveness classification, the
// reference encoding and a speculative live encoding are independent tasks
// joined before the verdict; the live encoding is discarded when liveness
// fails. Decision precedence follows the stages: liveness first, then the
// reference image, then the live image, then distance.
func (m *Matcher) Compare(ctx context.Context, reference, live image.Image) MatchResult {
	var (
		verdict     liveness.Verdict
		livenessErr error
		refEnc      Encoding
		refErr      error
		liveEnc     Encoding
		liveErr     error
	)

	// Tasks record their results and never return an error: precedence
	// between failures is decided after the join, not by whichever task
	// happened to fail first.
	g := new(errgroup.Group)
	g.Go(func() error {
		verdict, livenessErr = m.gate.Classify(ctx, live)
		return nil
	})
	g.Go(func() error {
		refEnc, refErr = m.EncodeFace(ctx, reference)
		return nil
	})
	g.Go(func() error {
		liveEnc, liveErr = m.EncodeFace(ctx, live)
		return nil
	})
	_ = g.Wait()

	if livenessErr != nil {
		m.logger.ErrorContext(ctx, "liveness classification unavailable", "error", livenessErr)
		return MatchResult{Outcome: OutcomeError, Reason: ReasonLivenessUnavailable}
	}
	if !verdict.Real {
		// Spoofing short-circuit: the speculative live encoding is dropped
		// and no distance is ever attached.
		return MatchResult{
			Outcome:  OutcomeNotMatched,
			Reason:   ReasonSpoofingDetected,
			Liveness: &verdict,
		}
	}
	if refErr != nil {
		return MatchResult{
			Outcome:  OutcomeError,
			Reason:   encodeReason(refErr, ReasonNoFaceReference, ReasonMultipleFacesReference),
			Liveness: &verdict,
		}
	}
	if liveErr != nil {
		return MatchResult{
			Outcome:  OutcomeError,
			Reason:   encodeReason(liveErr, ReasonNoFaceLive, ReasonMultipleFacesLive),
			Liveness: &verdict,
		}
	}

	distance := Distance(refEnc, liveEnc)
	result := MatchResult{Distance: &distance, Liveness: &verdict}
	if distance < m.threshold {
		result.Outcome = OutcomeMatched
		result.Reason = ReasonDistanceBelowThreshold
	} else {
		result.Outcome = OutcomeNotMatched
		result.Reason = ReasonDistanceAboveThreshold
	}

	m.logger.DebugContext(ctx, "face comparison",
		"outcome", result.Outcome, "distance", distance)
	return result
}

func encodeReason(err error, noFace, multiple Reason) Reason {
	switch {
	case errors.Is(err, sentinel.ErrNoFaceDetected):
		return noFace
	case errors.Is(err, sentinel.ErrMultipleFacesDetected):
		return multiple
	default:
		return ReasonEncodingFailed
	}
}
