package ocr

import (
	"image"
	"image/color"
)

// Preprocessing tuned for scanned maritime log tables: small fonts, grid
// lines, stamps, uneven illumination. The stage order is fixed: denoising
// before thresholding avoids amplifying speckle, and thresholding before
// closing avoids merging noise into false strokes.
const (
	thresholdWindow = 11
	thresholdOffset = 2
	closingRadius   = 0 // near-identity structuring element
)

// Preprocess normalizes a raster page image for recognition.
func Preprocess(img image.Image) *image.Gray {
	g := Grayscale(img)
	g = Denoise(g)
	g = AdaptiveThreshold(g, thresholdWindow, thresholdOffset)
	return Close(g, closingRadius)
}

// Grayscale converts any image to single-channel luminance.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetGray(x-b.Min.X, y-b.Min.Y, color.GrayModel.Convert(img.At(x, y)).(color.Gray))
		}
	}
	return out
}

// Denoise applies a 3x3 median filter, which removes the salt-and-pepper
// speckle typical of low-quality scans without blurring glyph edges.
func Denoise(g *image.Gray) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	out := image.NewGray(g.Rect)
	var window [9]uint8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			k := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					window[k] = g.GrayAt(clamp(x+dx, 0, w-1), clamp(y+dy, 0, h-1)).Y
					k++
				}
			}
			out.SetGray(x, y, color.Gray{Y: median9(window)})
		}
	}
	return out
}

// AdaptiveThreshold binarizes against a locally-windowed mean rather than a
// single global threshold; scanned logs commonly carry shadowing across the
// page that a global cut would smear into solid black regions.
// A pixel becomes white when it exceeds its window mean minus offset.
func AdaptiveThreshold(g *image.Gray, window, offset int) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	out := image.NewGray(g.Rect)
	if w == 0 || h == 0 {
		return out
	}

	// Summed-area table, one row/col of zero padding.
	sat := make([]uint64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum uint64
		for x := 0; x < w; x++ {
			rowSum += uint64(g.GrayAt(x, y).Y)
			sat[(y+1)*(w+1)+x+1] = sat[y*(w+1)+x+1] + rowSum
		}
	}

	half := window / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, x1 := clamp(x-half, 0, w-1), clamp(x+half, 0, w-1)
			y0, y1 := clamp(y-half, 0, h-1), clamp(y+half, 0, h-1)
			area := uint64((x1 - x0 + 1) * (y1 - y0 + 1))
			sum := sat[(y1+1)*(w+1)+x1+1] - sat[y0*(w+1)+x1+1] -
				sat[(y1+1)*(w+1)+x0] + sat[y0*(w+1)+x0]
			mean := float64(sum) / float64(area)
			if float64(g.GrayAt(x, y).Y) > mean-float64(offset) {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// Close applies a morphological closing (dilate then erode) on a binary
// image with a square structuring element of the given radius. Radius 0 is
// the identity; in the fixed pipeline the element stays minimal so thin
// glyph strokes survive.
func Close(g *image.Gray, radius int) *image.Gray {
	if radius <= 0 {
		return g
	}
	return erode(dilate(g, radius), radius)
}

func dilate(g *image.Gray, r int) *image.Gray { return rank(g, r, true) }
func erode(g *image.Gray, r int) *image.Gray  { return rank(g, r, false) }

func rank(g *image.Gray, r int, maximum bool) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	out := image.NewGray(g.Rect)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var best uint8
			if !maximum {
				best = 255
			}
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					v := g.GrayAt(clamp(x+dx, 0, w-1), clamp(y+dy, 0, h-1)).Y
					if maximum && v > best {
						best = v
					} else if !maximum && v < best {
						best = v
					}
				}
			}
			out.SetGray(x, y, color.Gray{Y: best})
		}
	}
	return out
}

func median9(v [9]uint8) uint8 {
	// insertion sort on the fixed window
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j-1] > v[j]; j-- {
			v[j-1], v[j] = v[j], v[j-1]
		}
	}
	return v[4]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
