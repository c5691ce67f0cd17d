// Package preprocess prepares captured screen images for OCR.
//
// Normalize runs a fixed chain: grayscale, global threshold, non-local-means
// denoise and a 3x3 sharpen. The output always has the input's dimensions.
package preprocess

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/disintegration/imaging"
)

const (
	// Threshold splits black (<) from white (>=).
	Threshold = 128

	denoiseStrength = 4.0
	templateWindow  = 7
	searchWindow    = 21
)

var ErrInvalidImage = errors.New("invalid image")

// sharpenKernel has unit sum: center 9, eight neighbours -1.
var sharpenKernel = &convolution.Kernel{
	Matrix: []float64{
		-1, -1, -1,
		-1, 9, -1,
		-1, -1, -1,
	},
	Width:  3,
	Height: 3,
}

// Normalize converts img into a binary-looking grayscale image tuned for OCR.
func Normalize(img image.Image) (*image.Gray, error) {
	return NormalizeContext(context.Background(), img)
}

// NormalizeContext is Normalize with cancellation of the denoise step.
func NormalizeContext(ctx context.Context, img image.Image) (*image.Gray, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty bounds %v", ErrInvalidImage, b)
	}

	gray := Grayscale(img)
	binary := Binarize(gray)
	denoised, err := Denoise(ctx, binary)
	if err != nil {
		return nil, fmt.Errorf("denoise: %w", err)
	}
	return Sharpen(denoised), nil
}

// DecodePNG reads PNG bytes, reporting undecodable input as ErrInvalidImage.
func DecodePNG(data []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Grayscale converts to a single channel using Rec. 601 luma weights.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return cloneGray(g)
	}
	lum := imaging.Grayscale(img)
	b := lum.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := lum.Pix[y*lum.Stride : y*lum.Stride+b.Dx()*4]
		row := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()]
		for x := range row {
			row[x] = src[x*4]
		}
	}
	return dst
}

// Binarize maps every pixel below Threshold to 0 and the rest to 255.
func Binarize(src *image.Gray) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		in := src.Pix[y*src.Stride : y*src.Stride+b.Dx()]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()]
		for x, v := range in {
			if v >= Threshold {
				out[x] = 0xFF
			}
		}
	}
	return dst
}

// Sharpen applies the unit-sum 3x3 high-pass kernel with edge extension.
func Sharpen(src *image.Gray) *image.Gray {
	rgba := convolution.Convolve(src, sharpenKernel, &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: true})
	b := rgba.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Pix[y*dst.Stride+x] = rgba.Pix[y*rgba.Stride+x*4]
		}
	}
	return dst
}

func cloneGray(src *image.Gray) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
