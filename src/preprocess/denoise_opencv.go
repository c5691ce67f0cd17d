//go:build opencv

package preprocess

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Denoise applies OpenCV's fastNlMeansDenoising with the package parameters.
// The cgo call itself cannot be interrupted; ctx is only checked before it.
func Denoise(ctx context.Context, src *image.Gray) (*image.Gray, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	packed := make([]byte, w*h)
	for y := 0; y < h; y++ {
		copy(packed[y*w:(y+1)*w], src.Pix[y*src.Stride:y*src.Stride+w])
	}

	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8U, packed)
	if err != nil {
		return nil, fmt.Errorf("failed to create mat: %w", err)
	}
	defer mat.Close()

	out := gocv.NewMat()
	defer out.Close()

	gocv.FastNlMeansDenoisingWithParams(mat, &out, float32(denoiseStrength), templateWindow, searchWindow)

	data := out.ToBytes()
	if len(data) != w*h {
		return nil, fmt.Errorf("unexpected denoise output size %d, want %d", len(data), w*h)
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	copy(dst.Pix, data)
	return dst, nil
}
