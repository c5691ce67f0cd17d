//go:build !windows

package screenshot

import (
	"fmt"
	"image"
	"runtime"
)

type unsupportedWindow struct{}

// NewWindowLocator is a stub for non-Windows platforms
func NewWindowLocator() WindowLocator {
	return unsupportedWindow{}
}

func (unsupportedWindow) ActiveWindow() (image.Rectangle, error) {
	return image.Rectangle{}, fmt.Errorf("%w: foreground window lookup not implemented for %s", ErrNoActiveWindow, runtime.GOOS)
}
