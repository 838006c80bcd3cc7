// Package ocr implements the text-recognition capability on Tesseract. A
// gosseract client is not safe for concurrent use, so each call gets its own
// short-lived client; the trained data stays shared on disk.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"attest/internal/document"
)

// Tesseract adapts the gosseract client to the document.OCR capability.
type Tesseract struct {
	language       string
	tessdataPrefix string
}

// New returns the adapter. language is the default for requests that do not
// specify one; tessdataPrefix may be empty to use the system default.
func New(language, tessdataPrefix string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{language: language, tessdataPrefix: tessdataPrefix}
}

func (t *Tesseract) Recognize(ctx context.Context, req document.OCRRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.tessdataPrefix != "" {
		client.TessdataPrefix = t.tessdataPrefix
	}

	language := req.Language
	if language == "" {
		language = t.language
	}
	if err := client.SetLanguage(language); err != nil {
		return "", fmt.Errorf("ocr: set language %q: %w", language, err)
	}
	if err := client.SetPageSegMode(segMode(req.Mode)); err != nil {
		return "", fmt.Errorf("ocr: set page segmentation mode: %w", err)
	}
	if req.Whitelist != "" {
		if err := client.SetWhitelist(req.Whitelist); err != nil {
			return "", fmt.Errorf("ocr: set whitelist: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, req.Image); err != nil {
		return "", fmt.Errorf("ocr: encode region: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("ocr: set image: %w", err)
	}
	return client.Text()
}

func segMode(mode document.SegMode) gosseract.PageSegMode {
	switch mode {
	case document.SegSingleLine:
		return gosseract.PSM_SINGLE_LINE
	case document.SegSingleWord:
		return gosseract.PSM_SINGLE_WORD
	default:
		return gosseract.PSM_SINGLE_BLOCK
	}
}
