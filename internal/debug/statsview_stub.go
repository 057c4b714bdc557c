//go:build !statsview

package debug

import (
	"fmt"
	"io"
)

// StatsViewAvailable reports whether this build includes statsview
func StatsViewAvailable() bool {
	return false
}

// LaunchStatsView explains how to get the statistics server
func LaunchStatsView(output io.Writer) (stop func()) {
	fmt.Fprintln(output, "stats server not available: build with -tags statsview")
	return func() {}
}
