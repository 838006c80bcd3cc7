package facematch

import (
	"context"
	"image"
	"math"

	"attest/internal/liveness"
)

// Encoding is a fixed-size face descriptor. It is owned exclusively by the
// comparison call that produced it and is never cached or persisted.
type Encoding []float32

// Distance is the Euclidean distance between two encodings.
func Distance(a, b Encoding) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Encoder is the black-box face detection + embedding capability. It returns
// one encoding per detected face, in detection order.
type Encoder interface {
	Encode(ctx context.Context, img image.Image) ([]Encoding, error)
}

// LivenessGate abstracts the anti-spoofing detector so tests can script
// verdicts.
type LivenessGate interface {
	Classify(ctx context.Context, frame image.Image) (liveness.Verdict, error)
}

// Outcome tags the comparison verdict.
type Outcome string

const (
	OutcomeMatched    Outcome = "matched"
	OutcomeNotMatched Outcome = "not_matched"
	OutcomeError      Outcome = "error"
)

// Reason codes attached to a MatchResult.
type Reason string

const (
	ReasonDistanceBelowThreshold Reason = "distance_below_threshold"
	ReasonDistanceAboveThreshold Reason = "distance_above_threshold"
	ReasonSpoofingDetected       Reason = "spoofing_detected"
	ReasonNoFaceReference        Reason = "no_face_in_reference"
	ReasonMultipleFacesReference Reason = "multiple_faces_in_reference"
	ReasonNoFaceLive             Reason = "no_face_in_live"
	ReasonMultipleFacesLive      Reason = "multiple_faces_in_live"
	ReasonEncodingFailed         Reason = "encoding_failed"
	ReasonLivenessUnavailable    Reason = "liveness_unavailable"
)

// MatchResult is the comparison verdict with its evidence. Distance is nil
// whenever the decision was made before any distance computation, which makes
// the spoofing short-circuit observable to callers.
type MatchResult struct {
	Outcome  Outcome
	Reason   Reason
	Distance *float64
	Liveness *liveness.Verdict
}
