package preprocess

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRGBA(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// textLikeImage draws dark strokes on a light, slightly uneven background.
func textLikeImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			bg := uint8(200 + (x*7+y*13)%40)
			img.SetRGBA(x, y, color.RGBA{R: bg, G: bg, B: bg - 10, A: 255})
		}
	}
	for y := 4; y < h-4; y++ {
		for x := 6; x < 9; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 20, G: 30, B: 40, A: 255})
		}
	}
	for x := 10; x < w-4; x++ {
		img.SetRGBA(x, h/2, color.RGBA{R: 60, G: 10, B: 90, A: 255})
	}
	return img
}

func assertBinary(t *testing.T, img *image.Gray) {
	t.Helper()
	for i, v := range img.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("pixel %d has value %d, want 0 or 255", i, v)
		}
	}
}

func TestNormalizeKeepsDimensions(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
	}{
		{"SmallRGBA", textLikeImage(24, 16)},
		{"SinglePixel", newRGBA(1, 1, color.RGBA{A: 255})},
		{"Gray", image.NewGray(image.Rect(0, 0, 9, 5))},
		{"OffsetBounds", textLikeImage(30, 30).SubImage(image.Rect(5, 5, 25, 17))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Normalize(tt.img)
			require.NoError(t, err)
			assert.Equal(t, tt.img.Bounds().Dx(), out.Bounds().Dx())
			assert.Equal(t, tt.img.Bounds().Dy(), out.Bounds().Dy())
			assert.Len(t, out.Pix, out.Bounds().Dx()*out.Bounds().Dy())
		})
	}
}

func TestNormalizeRejectsInvalidInput(t *testing.T) {
	_, err := Normalize(nil)
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = Normalize(image.NewRGBA(image.Rect(0, 0, 0, 10)))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestNormalizeOutputIsBinary(t *testing.T) {
	out, err := Normalize(textLikeImage(32, 24))
	require.NoError(t, err)
	assertBinary(t, out)

	// strokes stay black, background stays white
	assert.Equal(t, uint8(0), out.GrayAt(7, 12).Y)
	assert.Equal(t, uint8(255), out.GrayAt(2, 2).Y)
}

func TestNormalizeStableOnBinaryImage(t *testing.T) {
	first, err := Normalize(textLikeImage(28, 20))
	require.NoError(t, err)

	second, err := Normalize(first)
	require.NoError(t, err)

	assert.Equal(t, first.Pix, second.Pix)
}

func TestNormalizeBlankWhiteImage(t *testing.T) {
	out, err := Normalize(newRGBA(16, 8, color.RGBA{R: 255, G: 255, B: 255, A: 255}))
	require.NoError(t, err)
	for _, v := range out.Pix {
		require.Equal(t, uint8(255), v)
	}
}

func TestGrayscaleLuma(t *testing.T) {
	tests := []struct {
		name string
		c    color.RGBA
		want uint8
	}{
		{"White", color.RGBA{255, 255, 255, 255}, 255},
		{"Black", color.RGBA{0, 0, 0, 255}, 0},
		{"Red", color.RGBA{255, 0, 0, 255}, 76},
		{"Green", color.RGBA{0, 255, 0, 255}, 150},
		{"Blue", color.RGBA{0, 0, 255, 255}, 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Grayscale(newRGBA(2, 2, tt.c))
			assert.InDelta(t, float64(tt.want), float64(g.GrayAt(1, 1).Y), 1)
		})
	}
}

func TestBinarizeThreshold(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 6, 1))
	copy(src.Pix, []uint8{0, 100, 127, 128, 129, 255})

	out := Binarize(src)
	assert.Equal(t, []uint8{0, 0, 0, 255, 255, 255}, out.Pix)

	// already binary input is a fixed point
	again := Binarize(out)
	assert.Equal(t, out.Pix, again.Pix)
}

func TestSharpenKernel(t *testing.T) {
	// a flat image is unchanged by a unit-sum kernel
	flat := image.NewGray(image.Rect(0, 0, 5, 5))
	for i := range flat.Pix {
		flat.Pix[i] = 90
	}
	assert.Equal(t, flat.Pix, Sharpen(flat).Pix)

	// a lone mid-gray dot on black is amplified and clamped
	dot := image.NewGray(image.Rect(0, 0, 5, 5))
	dot.SetGray(2, 2, color.Gray{Y: 20})
	out := Sharpen(dot)
	assert.Equal(t, uint8(180), out.GrayAt(2, 2).Y)
	assert.Equal(t, uint8(0), out.GrayAt(1, 1).Y)
}

func TestDenoisePreservesBinaryStrokes(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 15, 15))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	src.SetGray(7, 7, color.Gray{Y: 0})

	out, err := Denoise(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), out.Bounds())
	// at low strength a one-pixel mismatch already drives the patch weight to
	// zero, so binary input comes back unchanged
	assert.Equal(t, src.Pix, out.Pix)
}

func TestDenoiseSmoothsGrayNoise(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 12, 12))
	for i := range src.Pix {
		src.Pix[i] = 120
	}
	src.SetGray(5, 5, color.Gray{Y: 122})

	out, err := Denoise(context.Background(), src)
	require.NoError(t, err)
	assert.Less(t, int(out.GrayAt(5, 5).Y), 122)
	assert.GreaterOrEqual(t, int(out.GrayAt(5, 5).Y), 120)
}

func TestSharpenKernelIsThreeByThree(t *testing.T) {
	assert.Equal(t, 3, sharpenKernel.MaxX())
	assert.Equal(t, 3, sharpenKernel.MaxY())
	assert.Len(t, sharpenKernel.Matrix, 9)
}

func TestDenoiseBinaryInputFinishesQuickly(t *testing.T) {
	src := Binarize(Grayscale(textLikeImage(1920, 1080)))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := Denoise(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, src.Pix, out.Pix)
}

func TestDenoiseHonoursCancellation(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range src.Pix {
		src.Pix[i] = uint8(100 + i%7)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Denoise(ctx, src)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPNGRoundTrip(t *testing.T) {
	data, err := EncodePNG(textLikeImage(8, 8))
	require.NoError(t, err)

	img, err := DecodePNG(data)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())

	_, err = DecodePNG([]byte("not a png"))
	assert.ErrorIs(t, err, ErrInvalidImage)
}
