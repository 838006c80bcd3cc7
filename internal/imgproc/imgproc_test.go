package imgproc

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grayImage(w, h int, fill func(x, y int) uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.SetGray(x, y, color.Gray{Y: fill(x, y)})
		}
	}
	return g
}

func TestDownscale(t *testing.T) {
	t.Run("shrinks longest edge to bound", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 1280, 720))
		out := Downscale(img, 640)
		b := out.Bounds()
		assert.Equal(t, 640, b.Dx())
		assert.LessOrEqual(t, b.Dy(), 640)
	})

	t.Run("portrait orientation uses height", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 300, 900))
		out := Downscale(img, 640)
		assert.Equal(t, 640, out.Bounds().Dy())
	})

	t.Run("small image passes through", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 100, 50))
		assert.Equal(t, img, Downscale(img, 640))
	})
}

func TestOtsu(t *testing.T) {
	// Bimodal image: left half dark, right half bright.
	g := grayImage(40, 40, func(x, y int) uint8 {
		if x < 20 {
			return 30
		}
		return 220
	})

	level := OtsuLevel(g)
	assert.GreaterOrEqual(t, level, uint8(30))
	assert.Less(t, level, uint8(220))

	bin := OtsuThreshold(g)
	assert.Equal(t, uint8(0), bin.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), bin.GrayAt(39, 0).Y)
}

func TestEqualizeHist(t *testing.T) {
	// Low-contrast ramp confined to [100,140] must stretch toward [0,255].
	g := grayImage(64, 1, func(x, y int) uint8 { return uint8(100 + (x*40)/64) })
	out := EqualizeHist(g)

	lo, hi := uint8(255), uint8(0)
	for _, px := range out.Pix {
		lo = min(lo, px)
		hi = max(hi, px)
	}
	assert.Equal(t, uint8(0), lo)
	assert.Greater(t, hi, uint8(200))
}

func TestAdaptiveThreshold(t *testing.T) {
	// Gradient background with a dark glyph stroke: the stroke must come out
	// background (0) and the surroundings foreground (255) regardless of the
	// global gradient.
	g := grayImage(60, 20, func(x, y int) uint8 {
		v := uint8(80 + x*2)
		if y == 10 && x >= 10 && x < 50 {
			return v / 4
		}
		return v
	})
	bin := AdaptiveThreshold(g, 5, 10)
	assert.Equal(t, uint8(0), bin.GrayAt(30, 10).Y, "stroke pixel")
	assert.Equal(t, uint8(255), bin.GrayAt(30, 3).Y, "background pixel")
}

func TestClose(t *testing.T) {
	// A one-pixel gap inside a horizontal stroke is bridged by closing.
	g := grayImage(21, 7, func(x, y int) uint8 {
		if y == 3 && x >= 2 && x <= 18 && x != 10 {
			return 255
		}
		return 0
	})
	require.Equal(t, uint8(0), g.GrayAt(10, 3).Y)

	closed := Close(g, 1)
	assert.Equal(t, uint8(255), closed.GrayAt(10, 3).Y, "gap bridged")
	assert.Equal(t, uint8(0), closed.GrayAt(10, 0).Y, "background untouched")
}

func TestMedian(t *testing.T) {
	// A single salt pixel in a dark field is removed.
	g := grayImage(9, 9, func(x, y int) uint8 {
		if x == 4 && y == 4 {
			return 255
		}
		return 10
	})
	out := Median(g)
	assert.Equal(t, uint8(10), out.GrayAt(4, 4).Y)
}

func TestToGray(t *testing.T) {
	img := image.NewRGBA(image.Rect(2, 2, 6, 6))
	g := ToGray(img)
	assert.Equal(t, image.Rect(0, 0, 4, 4), g.Bounds())

	same := image.NewGray(image.Rect(0, 0, 3, 3))
	assert.Same(t, same, ToGray(same))
}
