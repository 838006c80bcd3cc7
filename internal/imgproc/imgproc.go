// Package imgproc holds the image preprocessing primitives the extraction and
// liveness components compose. Resize, blur and grayscale conversion delegate
// to the imaging library; thresholding, equalization and morphology operate
// directly on grayscale rasters.
package imgproc

import (
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Decode parses raw image bytes. JPEG, PNG, GIF, TIFF and BMP are accepted.
func Decode(b []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(b))
}

// ToGray converts any image to an 8-bit grayscale raster.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g.Set(x-b.Min.X, y-b.Min.Y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return g
}

// Downscale shrinks img so its longest edge is at most maxEdge pixels,
// preserving aspect ratio. Images already within the bound pass through
// untouched so repeated calls are idempotent.
func Downscale(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return img
	}
	if w >= h {
		return imaging.Resize(img, maxEdge, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxEdge, imaging.Lanczos)
}

// Crop extracts the sub-image covered by rect, clamped to img's bounds.
func Crop(img image.Image, rect image.Rectangle) image.Image {
	return imaging.Crop(img, rect.Intersect(img.Bounds()))
}

// Blur applies gaussian smoothing; sigma controls the kernel spread.
func Blur(img image.Image, sigma float64) image.Image {
	return imaging.Blur(img, sigma)
}

// EqualizeHist spreads the grayscale histogram across the full range,
// boosting local contrast ahead of OCR or classification.
func EqualizeHist(g *image.Gray) *image.Gray {
	var hist [256]int
	for _, px := range g.Pix {
		hist[px]++
	}
	total := len(g.Pix)
	if total == 0 {
		return g
	}

	// Cumulative distribution, anchored at the first non-empty bin.
	var cdf [256]int
	sum := 0
	for i := 0; i < 256; i++ {
		sum += hist[i]
		cdf[i] = sum
	}
	cdfMin := 0
	for i := 0; i < 256; i++ {
		if cdf[i] > 0 {
			cdfMin = cdf[i]
			break
		}
	}
	if total == cdfMin {
		return g
	}

	var lut [256]uint8
	for i := 0; i < 256; i++ {
		v := (cdf[i] - cdfMin) * 255 / (total - cdfMin)
		if v < 0 {
			v = 0
		}
		lut[i] = uint8(v)
	}

	out := image.NewGray(g.Bounds())
	for i, px := range g.Pix {
		out.Pix[i] = lut[px]
	}
	return out
}

// OtsuLevel computes the global threshold separating foreground from
// background by maximizing inter-class variance.
func OtsuLevel(g *image.Gray) uint8 {
	var hist [256]int
	for _, px := range g.Pix {
		hist[px]++
	}
	total := len(g.Pix)
	if total == 0 {
		return 128
	}

	sumAll := 0
	for i, n := range hist {
		sumAll += i * n
	}

	var (
		best      float64
		threshold uint8
		wB, sumB  int
	)
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += t * hist[t]
		mB := float64(sumB) / float64(wB)
		mF := float64(sumAll-sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold
}

// OtsuThreshold binarizes g at the Otsu level: foreground 255, background 0.
func OtsuThreshold(g *image.Gray) *image.Gray {
	return binarize(g, OtsuLevel(g))
}

func binarize(g *image.Gray, level uint8) *image.Gray {
	out := image.NewGray(g.Bounds())
	for i, px := range g.Pix {
		if px > level {
			out.Pix[i] = 255
		}
	}
	return out
}

// AdaptiveThreshold binarizes using the mean of the (2*radius+1)^2
// neighborhood minus bias as the local level. Uneven lighting across a
// photographed document defeats a single global level; the local mean does
// not.
func AdaptiveThreshold(g *image.Gray, radius int, bias int) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	integral := integralImage(g)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := max(x-radius, 0), max(y-radius, 0)
			x1, y1 := min(x+radius, w-1), min(y+radius, h-1)
			area := (x1 - x0 + 1) * (y1 - y0 + 1)
			sum := integral[(y1+1)*(w+1)+(x1+1)] -
				integral[y0*(w+1)+(x1+1)] -
				integral[(y1+1)*(w+1)+x0] +
				integral[y0*(w+1)+x0]
			mean := sum / area
			if int(g.Pix[y*g.Stride+x]) > mean-bias {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

func integralImage(g *image.Gray) []int {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	integral := make([]int, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		rowSum := 0
		for x := 0; x < w; x++ {
			rowSum += int(g.Pix[y*g.Stride+x])
			integral[(y+1)*(w+1)+(x+1)] = integral[y*(w+1)+(x+1)] + rowSum
		}
	}
	return integral
}

// Close applies a morphological closing (dilate then erode) with a square
// kernel of the given radius, bridging small gaps in binarized glyph strokes.
func Close(bin *image.Gray, radius int) *image.Gray {
	return erode(dilate(bin, radius), radius)
}

func dilate(g *image.Gray, radius int) *image.Gray {
	return morph(g, radius, func(acc, px uint8) uint8 { return max(acc, px) }, 0)
}

func erode(g *image.Gray, radius int) *image.Gray {
	return morph(g, radius, func(acc, px uint8) uint8 { return min(acc, px) }, 255)
}

func morph(g *image.Gray, radius int, combine func(uint8, uint8) uint8, seed uint8) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			acc := seed
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					yy, xx := y+dy, x+dx
					if yy < 0 || yy >= h || xx < 0 || xx >= w {
						continue
					}
					acc = combine(acc, g.Pix[yy*g.Stride+xx])
				}
			}
			out.Pix[y*out.Stride+x] = acc
		}
	}
	return out
}

// Median applies a 3x3 median filter, suppressing salt-and-pepper noise
// without smearing stroke edges the way a gaussian blur would.
func Median(g *image.Gray) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	var window [9]uint8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					yy, xx := y+dy, x+dx
					if yy < 0 || yy >= h || xx < 0 || xx >= w {
						continue
					}
					window[n] = g.Pix[yy*g.Stride+xx]
					n++
				}
			}
			out.Pix[y*out.Stride+x] = medianOf(window[:n])
		}
	}
	return out
}

func medianOf(s []uint8) uint8 {
	// Insertion sort; windows are at most 9 wide.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
	return s[len(s)/2]
}
