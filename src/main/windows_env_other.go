//go:build !windows

package main

import (
	"log"

	"screen-translator/src/screenshot"
)

func enableDPIAwareness() {}

func logMonitorConfiguration() {
	if b, err := screenshot.GetDisplayBounds(); err == nil {
		log.Printf("MONITOR: Primary display %v", b)
	}
}
