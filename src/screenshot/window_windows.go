//go:build windows

package screenshot

import (
	"fmt"
	"image"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	procGetWindowRect       = user32.NewProc("GetWindowRect")
)

type foregroundWindow struct{}

// NewWindowLocator returns the user32-backed foreground window locator.
func NewWindowLocator() WindowLocator {
	return foregroundWindow{}
}

func (foregroundWindow) ActiveWindow() (image.Rectangle, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return image.Rectangle{}, ErrNoActiveWindow
	}

	var rect windows.Rect
	ok, _, callErr := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&rect)))
	if ok == 0 {
		return image.Rectangle{}, fmt.Errorf("%w: GetWindowRect failed: %v", ErrNoActiveWindow, callErr)
	}

	return image.Rect(int(rect.Left), int(rect.Top), int(rect.Right), int(rect.Bottom)), nil
}
