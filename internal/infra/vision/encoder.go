package vision

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"attest/internal/facematch"
	"attest/pkg/platform/sentinel"
)

const (
	embeddingInputSize = 96
	embeddingSize      = 128
)

// FaceEncoder detects faces with a cascade classifier and embeds each one
// with the embedding network. One encoding is returned per detected face, in
// detection order; deciding how many faces are acceptable is the matcher's
// job, not this adapter's.
type FaceEncoder struct {
	mu      sync.Mutex
	cascade gocv.CascadeClassifier
	net     gocv.Net
}

func NewFaceEncoder(cascadePath, modelPath string) (*FaceEncoder, error) {
	cascade := gocv.NewCascadeClassifier()
	if !cascade.Load(cascadePath) {
		cascade.Close()
		return nil, fmt.Errorf("%w: face cascade %s", sentinel.ErrModelUnavailable, cascadePath)
	}

	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		cascade.Close()
		return nil, fmt.Errorf("%w: encoder model %s", sentinel.ErrModelUnavailable, modelPath)
	}
	return &FaceEncoder{cascade: cascade, net: net}, nil
}

func (e *FaceEncoder) Encode(ctx context.Context, img image.Image) ([]facematch.Encoding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("vision: convert image: %w", err)
	}
	defer mat.Close()

	e.mu.Lock()
	defer e.mu.Unlock()

	rects := e.cascade.DetectMultiScale(mat)
	encodings := make([]facematch.Encoding, 0, len(rects))
	for _, rect := range rects {
		face := mat.Region(rect)
		encoding, err := e.embed(face)
		face.Close()
		if err != nil {
			return nil, err
		}
		encodings = append(encodings, encoding)
	}
	return encodings, nil
}

func (e *FaceEncoder) embed(face gocv.Mat) (facematch.Encoding, error) {
	blob := gocv.BlobFromImage(face,
		1.0/255.0,
		image.Pt(embeddingInputSize, embeddingInputSize),
		gocv.NewScalar(0, 0, 0, 0),
		true, false)
	defer blob.Close()

	e.net.SetInput(blob, "")
	output := e.net.Forward("")
	defer output.Close()

	if output.Total() < embeddingSize {
		return nil, fmt.Errorf("vision: embedding output has %d values, want %d", output.Total(), embeddingSize)
	}
	encoding := make(facematch.Encoding, embeddingSize)
	for i := 0; i < embeddingSize; i++ {
		encoding[i] = output.GetFloatAt(0, i)
	}
	return encoding, nil
}

func (e *FaceEncoder) Close() error {
	if err := e.cascade.Close(); err != nil {
		return err
	}
	return e.net.Close()
}
