// Package vision implements the detector, liveness and face-encoding
// capabilities on OpenCV DNN models. Every model is loaded once at process
// start and shared read-only; a load failure is fatal, never per-request.
//
// OpenCV nets do not tolerate concurrent Forward calls on the same handle, so
// each adapter serializes inference behind a mutex. Requests still run in
// parallel with each other everywhere outside the model call itself.
package vision

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"attest/internal/document"
	"attest/pkg/platform/sentinel"
)

const detectorInputSize = 416

// RegionDetector locates document fields with a detection network producing
// SSD-style rows [batch, class, confidence, x1, y1, x2, y2].
type RegionDetector struct {
	mu     sync.Mutex
	net    gocv.Net
	labels []string
}

// NewRegionDetector loads the detection model and its label list.
func NewRegionDetector(modelPath, configPath, labelsPath string) (*RegionDetector, error) {
	labels, err := readLabels(labelsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: detector labels: %v", sentinel.ErrModelUnavailable, err)
	}

	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: detector model %s", sentinel.ErrModelUnavailable, modelPath)
	}
	return &RegionDetector{net: net, labels: labels}, nil
}

func (d *RegionDetector) Detect(ctx context.Context, img image.Image) ([]document.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("vision: convert image: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat,
		1.0/255.0,
		image.Pt(detectorInputSize, detectorInputSize),
		gocv.NewScalar(0, 0, 0, 0),
		true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	d.mu.Unlock()
	defer output.Close()

	bounds := img.Bounds()
	var detections []document.Detection
	for i := 0; i+7 <= output.Total(); i += 7 {
		confidence := float64(output.GetFloatAt(0, i+2))
		classID := int(output.GetFloatAt(0, i+1))
		if classID < 0 || classID >= len(d.labels) {
			continue
		}
		box := image.Rect(
			int(output.GetFloatAt(0, i+3)*float32(bounds.Dx())),
			int(output.GetFloatAt(0, i+4)*float32(bounds.Dy())),
			int(output.GetFloatAt(0, i+5)*float32(bounds.Dx())),
			int(output.GetFloatAt(0, i+6)*float32(bounds.Dy())),
		)
		detections = append(detections, document.Detection{
			Label:      d.labels[classID],
			Box:        box,
			Confidence: confidence,
		})
	}
	return detections, nil
}

func (d *RegionDetector) Close() error {
	return d.net.Close()
}

func readLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			labels = append(labels, line)
		}
	}
	return labels, scanner.Err()
}
