//go:build statsview

package debug

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// StatsViewAddress is where the runtime statistics server listens
const StatsViewAddress = "localhost:12600"

// StatsViewAvailable reports whether this build includes statsview
func StatsViewAvailable() bool {
	return true
}

// LaunchStatsView starts the statistics server on its own goroutine and
// returns a function that stops it.
func LaunchStatsView(output io.Writer) (stop func()) {
	viewer.SetConfiguration(viewer.WithAddr(StatsViewAddress))
	mgr := statsview.New()
	go mgr.Start()
	fmt.Fprintf(output, "stats server available at http://%s/debug/statsview\n", StatsViewAddress)
	return mgr.Stop
}
