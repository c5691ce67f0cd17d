package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

var ErrUnavailable = errors.New("clipboard not initialized")

var (
	mu    sync.Mutex
	ready bool
)

// Init must succeed before Write; it fails on headless systems.
func Init() error {
	mu.Lock()
	defer mu.Unlock()
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("clipboard init: %w", err)
	}
	ready = true
	return nil
}

// Write performs a mutex-guarded clipboard write.
func Write(text string) error {
	mu.Lock()
	defer mu.Unlock()
	if !ready {
		return ErrUnavailable
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
