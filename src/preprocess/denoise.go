//go:build !opencv

package preprocess

import (
	"context"
	"image"
	"math"
)

// Denoise applies non-local-means filtering. Each pixel becomes the weighted
// mean of the pixels in its search window, weighted by how closely their
// template patches match its own. Patch distances for one search offset are
// read from an integral image of squared differences.
//
// ctx is checked once per search offset.
func Denoise(ctx context.Context, src *image.Gray) (*image.Gray, error) {
	if isBinary(src) {
		// two-level input: any differing patch weighs exp(-255²/(49·h²)), so
		// only identical patches (same center value) contribute
		return cloneGray(src), nil
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	tr := templateWindow / 2
	sr := searchWindow / 2
	pad := tr + sr
	padded, pstride := padGray(src, pad)
	// (x, y) in image space
	at := func(x, y int) float64 { return padded[(y+pad)*pstride+x+pad] }

	pw, ph := w+2*tr, h+2*tr
	stride := pw + 1
	integral := make([]float64, stride*(ph+1))

	sumW := make([]float64, w*h)
	sumV := make([]float64, w*h)
	norm := 1 / (float64(templateWindow*templateWindow) * denoiseStrength * denoiseStrength)

	for dy := -sr; dy <= sr; dy++ {
		for dx := -sr; dx <= sr; dx++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			for y := 0; y < ph; y++ {
				rowSum := 0.0
				base := (y - tr + pad) * pstride
				shifted := (y - tr + dy + pad) * pstride
				for x := 0; x < pw; x++ {
					d := padded[base+x-tr+pad] - padded[shifted+x-tr+dx+pad]
					rowSum += d * d
					integral[(y+1)*stride+x+1] = integral[y*stride+x+1] + rowSum
				}
			}

			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					x1, y1 := x+templateWindow, y+templateWindow
					ssd := integral[y1*stride+x1] - integral[y*stride+x1] - integral[y1*stride+x] + integral[y*stride+x]
					weight := math.Exp(-ssd * norm)
					i := y*w + x
					sumW[i] += weight
					sumV[i] += weight * at(x+dx, y+dy)
				}
			}
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for i := range dst.Pix {
		v := math.Round(sumV[i] / sumW[i])
		dst.Pix[i] = uint8(clamp(int(v), 0, 255))
	}
	return dst, nil
}

// padGray copies src into a float buffer with pad pixels of edge replication
// on every side.
func padGray(src *image.Gray, pad int) ([]float64, int) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	pw, ph := w+2*pad, h+2*pad
	out := make([]float64, pw*ph)
	for y := 0; y < ph; y++ {
		sy := clamp(y-pad, 0, h-1)
		row := src.Pix[sy*src.Stride : sy*src.Stride+w]
		for x := 0; x < pw; x++ {
			out[y*pw+x] = float64(row[clamp(x-pad, 0, w-1)])
		}
	}
	return out, pw
}

// isBinary reports whether every pixel is 0 or 255.
func isBinary(src *image.Gray) bool {
	b := src.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for _, v := range src.Pix[y*src.Stride : y*src.Stride+b.Dx()] {
			if v != 0 && v != 0xFF {
				return false
			}
		}
	}
	return true
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
