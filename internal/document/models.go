package document

import (
	"context"
	"image"

	"attest/internal/cnp"
)

// Field labels as emitted by the region detector model.
const (
	FieldIdentityNumber = "cnp"
	FieldSeries         = "serie"
	FieldNumber         = "numar"
	FieldLastName       = "nume"
	FieldFirstName      = "prenume"
	FieldBirthPlace     = "loc_nastere"
	FieldAddress        = "domiciliu"
	FieldIssueDate      = "data_emiterii"
	FieldExpiryDate     = "data_expirarii"
)

// FieldStatus describes the outcome of extracting one region.
type FieldStatus string

const (
	// StatusOK: OCR produced text and, for the identity-number field, the
	// value passed full validation.
	StatusOK FieldStatus = "ok"
	// StatusUndetected: the region was found but OCR produced nothing after
	// all retries.
	StatusUndetected FieldStatus = "undetected"
	// StatusInvalid: text was read but failed validation; Errors carries the
	// specific validator failures. The field is never silently marked ok.
	StatusInvalid FieldStatus = "invalid"
)

// ExtractedField is produced once per detected region and never mutated.
type ExtractedField struct {
	Name       string
	RawText    string
	Cleaned    string
	Status     FieldStatus
	Confidence float64
	Errors     []string
}

// Result maps field names to their extraction outcome, in detector order.
// Fields whose regions were never detected are simply absent; whether that is
// fatal is caller policy. Lifetime is one request.
type Result struct {
	Fields []ExtractedField

	// ID holds the parsed identity number when one validated; nil otherwise.
	ID *cnp.Parsed
}

// Field returns the named field and whether it was present.
func (r *Result) Field(name string) (ExtractedField, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return ExtractedField{}, false
}

// Missing reports which of the given required fields are absent or undetected.
func (r *Result) Missing(required []string) []string {
	var missing []string
	for _, name := range required {
		f, ok := r.Field(name)
		if !ok || f.Status == StatusUndetected {
			missing = append(missing, name)
		}
	}
	return missing
}

// Detection is one region proposed by the detector model.
type Detection struct {
	Label      string
	Box        image.Rectangle
	Confidence float64
}

// Detector is the black-box region detection capability. The model behind it
// is loaded once at process start and shared read-only across requests.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Detection, error)
}

// SegMode selects how the OCR engine interprets text layout within a region.
type SegMode int

const (
	// SegSingleLine treats the region as exactly one line of text.
	SegSingleLine SegMode = iota
	// SegSingleWord treats the region as a single word; the fallback for
	// digit strings the single-line mode failed to read.
	SegSingleWord
	// SegBlock tolerates multiple lines of text.
	SegBlock
)

// OCRRequest carries engine settings alongside the preprocessed region.
type OCRRequest struct {
	Image     image.Image
	Language  string
	Mode      SegMode
	Whitelist string
}

// OCR is the black-box text recognition capability.
type OCR interface {
	Recognize(ctx context.Context, req OCRRequest) (string, error)
}
