package sentinel

import "errors"

// Sentinel errors for biometric and extraction facts. Components return these
// (optionally wrapped) so the pipeline and transport layers can translate them
// into verdict reason codes without string matching.
//
// These represent factual states about an input, not validation failures:
// - ErrNoFaceDetected: the image contains zero detectable faces
// - ErrMultipleFacesDetected: more than one face; the matcher never picks one
// - ErrUnreadableImage: the bytes could not be decoded into an image
// - ErrExtractionIncomplete: one or more required document fields undetected
// - ErrModelUnavailable: a model failed to load; fatal at process start only
//
// For identity-number validation errors use cnp.ValidationError directly.
var (
	ErrNoFaceDetected        = errors.New("no face detected")
	ErrMultipleFacesDetected = errors.New("multiple faces detected")
	ErrUnreadableImage       = errors.New("unreadable image")
	ErrExtractionIncomplete  = errors.New("extraction incomplete")
	ErrModelUnavailable      = errors.New("model unavailable")
)
