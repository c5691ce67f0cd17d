package screenshot

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log"
	"os"

	"github.com/kbinani/screenshot"
)

var (
	ErrNoActiveWindow = errors.New("no active window")
	ErrEmptyRegion    = errors.New("empty capture region")
)

// Region represents a screen region to capture
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

type Point struct {
	X int
	Y int
}

// RegionFromCorners builds the region spanned by two corners given in any order.
func RegionFromCorners(a, b Point) Region {
	return Region{
		X:      min(a.X, b.X),
		Y:      min(a.Y, b.Y),
		Width:  abs(b.X - a.X),
		Height: abs(b.Y - a.Y),
	}
}

// RegionFromRect converts a window or display rectangle.
func RegionFromRect(r image.Rectangle) Region {
	return Region{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Validate rejects regions without at least one pixel.
func (r Region) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrEmptyRegion, r.Width, r.Height)
	}
	return nil
}

func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Grabber snapshots a screen rectangle.
type Grabber func(bounds image.Rectangle) (*image.RGBA, error)

// Pointer waits for the primary button to go down and back up.
// Both calls block until the event arrives or ctx is done.
type Pointer interface {
	WaitPress(ctx context.Context) (Point, error)
	WaitRelease(ctx context.Context) (Point, error)
}

// WindowLocator reports the bounds of the foreground window.
type WindowLocator interface {
	ActiveWindow() (image.Rectangle, error)
}

// Capturer turns a region selection into a top-left origin RGBA buffer and
// writes it to OutputPath.
type Capturer struct {
	Grab       Grabber
	Pointer    Pointer
	Window     WindowLocator
	OutputPath string
}

// NewCapturer returns a Capturer backed by the real display.
func NewCapturer(pointer Pointer, outputPath string) *Capturer {
	return &Capturer{
		Grab:       screenshot.CaptureRect,
		Pointer:    pointer,
		Window:     NewWindowLocator(),
		OutputPath: outputPath,
	}
}

// CaptureActiveWindow captures the bounds of the current foreground window.
func (c *Capturer) CaptureActiveWindow(ctx context.Context) (*image.RGBA, error) {
	if c.Window == nil {
		return nil, ErrNoActiveWindow
	}
	bounds, err := c.Window.ActiveWindow()
	if err != nil {
		return nil, err
	}
	log.Printf("Active window bounds: %v", bounds)
	return c.CaptureRegion(ctx, RegionFromRect(bounds))
}

// CaptureManualRegion waits for a press and a release of the pointer and
// captures the rectangle between the two positions.
func (c *Capturer) CaptureManualRegion(ctx context.Context) (*image.RGBA, error) {
	if c.Pointer == nil {
		return nil, errors.New("no pointer source configured")
	}

	start, err := c.Pointer.WaitPress(ctx)
	if err != nil {
		return nil, fmt.Errorf("waiting for press: %w", err)
	}
	log.Printf("Selection started at %+v", start)

	end, err := c.Pointer.WaitRelease(ctx)
	if err != nil {
		return nil, fmt.Errorf("waiting for release: %w", err)
	}
	log.Printf("Selection ended at %+v", end)

	return c.CaptureRegion(ctx, RegionFromCorners(start, end))
}

// CaptureRegion captures a specific region of the screen
func (c *Capturer) CaptureRegion(ctx context.Context, region Region) (*image.RGBA, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	grab := c.Grab
	if grab == nil {
		grab = screenshot.CaptureRect
	}

	log.Printf("Capturing region: X=%d Y=%d Width=%d Height=%d", region.X, region.Y, region.Width, region.Height)
	img, err := grab(region.Rect())
	if err != nil {
		return nil, fmt.Errorf("failed to capture region: %w", err)
	}
	img = toOrigin(img)

	if c.OutputPath != "" {
		if err := WritePNG(c.OutputPath, img); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// WritePNG removes any existing file at path before writing img, so a failed
// write never leaves an older capture behind.
func WritePNG(path string, img image.Image) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale capture %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return f.Close()
}

// toOrigin returns img with bounds starting at (0,0) and a tight stride.
func toOrigin(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	if b.Min == (image.Point{}) && img.Stride == 4*b.Dx() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// GetDisplayBounds returns the bounds of the primary display
func GetDisplayBounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	return screenshot.GetDisplayBounds(0), nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
