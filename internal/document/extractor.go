// Package document extracts structured fields from a photographed identity
// document. Region detection and OCR are injected capabilities; this package
// owns preprocessing, retries, cleaning and identity-number validation.
package document

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"strings"

	"attest/internal/cnp"
	"attest/internal/imgproc"
)

const digitWhitelist = "0123456789"

// ocrAttempt is one (preprocessing, OCR-config) pair from the ordered retry
// list for the identity-number field. The list is tried in sequence until a
// checksum-valid number appears or it is exhausted.
type ocrAttempt struct {
	name       string
	preprocess func(image.Image) image.Image
	mode       SegMode
}

var identityAttempts = []ocrAttempt{
	{"equalized adaptive, single line", preprocessIdentity, SegSingleLine},
	{"equalized adaptive, single word", preprocessIdentity, SegSingleWord},
	{"global otsu, single line", preprocessGeneric, SegSingleLine},
}

// preprocessIdentity prepares the identity-number strip: contrast
// equalization, median denoising, mean-adaptive thresholding and a closing
// pass to rejoin broken digit strokes.
func preprocessIdentity(img image.Image) image.Image {
	g := imgproc.ToGray(img)
	g = imgproc.EqualizeHist(g)
	g = imgproc.Median(g)
	g = imgproc.AdaptiveThreshold(g, 7, 10)
	return imgproc.Close(g, 1)
}

// preprocessGeneric prepares every other field: grayscale, light blur, global
// Otsu threshold.
func preprocessGeneric(img image.Image) image.Image {
	g := imgproc.ToGray(imgproc.Blur(img, 1))
	return imgproc.OtsuThreshold(g)
}

// Extractor turns a document photo into per-field text with validation
// status. It holds no per-request state; one instance serves concurrent
// requests.
type Extractor struct {
	detector      Detector
	ocr           OCR
	language      string
	minConfidence float64
	logger        *slog.Logger
}

type Option func(*Extractor)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) { e.logger = logger }
}

// WithLanguage sets the OCR language for free-text fields.
func WithLanguage(lang string) Option {
	return func(e *Extractor) { e.language = lang }
}

// WithMinConfidence drops detections below the given confidence.
func WithMinConfidence(c float64) Option {
	return func(e *Extractor) { e.minConfidence = c }
}

func NewExtractor(detector Detector, ocr OCR, opts ...Option) (*Extractor, error) {
	if detector == nil {
		return nil, errors.New("document: detector is required")
	}
	if ocr == nil {
		return nil, errors.New("document: ocr engine is required")
	}
	e := &Extractor{
		detector:      detector,
		ocr:           ocr,
		language:      "ron",
		minConfidence: 0.5,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract detects document regions and OCRs each one. A single field failing
// never aborts the others; only a detector failure (the model itself) is
// returned as an error.
func (e *Extractor) Extract(ctx context.Context, img image.Image) (*Result, error) {
	detections, err := e.detector.Detect(ctx, img)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, det := range detections {
		if det.Confidence < e.minConfidence {
			continue
		}
		if _, seen := result.Field(det.Label); seen {
			// Detectors occasionally propose the same region twice; the
			// first (highest-confidence) detection wins.
			continue
		}

		region := imgproc.Crop(img, det.Box)
		var field ExtractedField
		if det.Label == FieldIdentityNumber {
			var parsed *cnp.Parsed
			field, parsed = e.extractIdentityNumber(ctx, region)
			result.ID = parsed
		} else {
			field = e.extractGeneric(ctx, det.Label, region)
		}
		field.Confidence = det.Confidence
		result.Fields = append(result.Fields, field)
	}
	return result, nil
}

// extractIdentityNumber walks the ordered retry list. Each attempt corrects
// digit/letter confusions, strips non-digits and scans every 13-digit window
// for the first structurally valid candidate; a checksum-valid candidate ends
// the loop. When nothing validates, the best-effort digits are still reported
// tagged invalid with the validator errors attached, never silently ok.
func (e *Extractor) extractIdentityNumber(ctx context.Context, region image.Image) (ExtractedField, *cnp.Parsed) {
	field := ExtractedField{Name: FieldIdentityNumber, Status: StatusUndetected}

	for _, attempt := range identityAttempts {
		text, err := e.ocr.Recognize(ctx, OCRRequest{
			Image:     attempt.preprocess(region),
			Mode:      attempt.mode,
			Whitelist: digitWhitelist,
		})
		if err != nil {
			e.logger.WarnContext(ctx, "identity number ocr attempt failed",
				"attempt", attempt.name, "error", err)
			continue
		}

		digits := CleanText(fixDigitConfusions(text), FieldIdentityNumber)
		if digits == "" {
			continue
		}
		if field.RawText == "" {
			field.RawText = strings.TrimSpace(text)
			field.Cleaned = digits
		}

		candidate, found := firstStructuralCandidate(digits)
		if !found {
			continue
		}

		parsed, err := cnp.Parse(candidate)
		if err == nil {
			field.RawText = strings.TrimSpace(text)
			field.Cleaned = candidate
			field.Status = StatusOK
			field.Errors = nil
			return field, &parsed
		}

		// Structurally plausible but not checksum-valid; remember the
		// failure and keep trying the remaining OCR configurations.
		field.Cleaned = candidate
		field.Status = StatusInvalid
		field.Errors = validationCodes(err)
	}

	if field.Status == StatusUndetected && field.Cleaned != "" {
		// Digits were read but no window was even structurally valid.
		_, err := cnp.Parse(field.Cleaned)
		field.Status = StatusInvalid
		field.Errors = validationCodes(err)
	}
	return field, nil
}

// firstStructuralCandidate returns the first 13-digit window passing the
// structural rules (format, date, region), checksum excluded.
func firstStructuralCandidate(digits string) (string, bool) {
	for i := 0; i+13 <= len(digits); i++ {
		window := digits[i : i+13]
		if cnp.ValidateStructure(window) == nil {
			return window, true
		}
	}
	return "", false
}

func validationCodes(err error) []string {
	var verr *cnp.ValidationError
	if errors.As(err, &verr) {
		return []string{string(verr.Kind)}
	}
	if err != nil {
		return []string{err.Error()}
	}
	return nil
}

func (e *Extractor) extractGeneric(ctx context.Context, label string, region image.Image) ExtractedField {
	field := ExtractedField{Name: label, Status: StatusUndetected}

	text, err := e.ocr.Recognize(ctx, OCRRequest{
		Image:    preprocessGeneric(region),
		Language: e.language,
		Mode:     SegBlock,
	})
	if err != nil {
		e.logger.WarnContext(ctx, "field ocr failed", "field", label, "error", err)
		return field
	}

	raw := strings.TrimSpace(text)
	if raw == "" {
		return field
	}

	field.RawText = raw
	field.Cleaned = CleanText(raw, label)
	field.Status = StatusOK

	switch label {
	case FieldIssueDate, FieldExpiryDate:
		if field.Cleaned == "" {
			// Text was read but no dd.dd.dd(dd) pattern is present.
			field.Status = StatusInvalid
			field.Errors = []string{"date_pattern"}
		}
	}
	return field
}
