package document

import (
	"regexp"
	"strings"
)

// Field-specific cleaning rules. OCR output around the structured part of a
// field is noise; each rule keeps only what the field can legitimately
// contain.
var (
	datePattern  = regexp.MustCompile(`\d{2}\.\d{2}\.\d{2}(\d{2})?`)
	alnumOnly    = regexp.MustCompile(`[^0-9A-Za-z]+`)
	nonDigit     = regexp.MustCompile(`[^0-9]+`)
	letterRuns   = regexp.MustCompile(`[^A-Za-zĂÂÎȘȚăâîșț\- ]+`)
	multiSpace   = regexp.MustCompile(`\s+`)
	addressStops = regexp.MustCompile(`(?i)\b(nr|bl|sc|et|ap)\b[.\s]`)
)

// CleanText applies the rule for fieldName to raw OCR output. Unknown fields
// get whitespace normalization only.
func CleanText(raw, fieldName string) string {
	text := multiSpace.ReplaceAllString(strings.TrimSpace(raw), " ")

	switch fieldName {
	case FieldIssueDate, FieldExpiryDate:
		return datePattern.FindString(text)
	case FieldIdentityNumber:
		return nonDigit.ReplaceAllString(text, "")
	case FieldSeries, FieldNumber:
		return alnumOnly.ReplaceAllString(text, "")
	case FieldAddress:
		return cleanAddress(text)
	case FieldLastName, FieldFirstName, FieldBirthPlace:
		cleaned := letterRuns.ReplaceAllString(text, "")
		return strings.TrimSpace(multiSpace.ReplaceAllString(cleaned, " "))
	default:
		return text
	}
}

// cleanAddress truncates at the first house-number/block/staircase/floor/
// apartment marker; OCR output after the structured part is dropped.
func cleanAddress(text string) string {
	if loc := addressStops.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	return strings.TrimSpace(text)
}

// ocrDigitFixes corrects confusions Tesseract makes on digit fields only.
// Applying these to name fields would corrupt them, so the substitution is
// restricted to the identity-number path.
var ocrDigitFixes = strings.NewReplacer(
	"O", "0",
	"o", "0",
	"I", "1",
	"l", "1",
	"|", "1",
)

// fixDigitConfusions rewrites letter-for-digit OCR mistakes.
func fixDigitConfusions(raw string) string {
	return ocrDigitFixes.Replace(raw)
}
