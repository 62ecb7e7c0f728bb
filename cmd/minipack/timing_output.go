package main

import (
	"fmt"
	"io"
	"time"

	"minipack/internal/buildpipeline"
	"minipack/internal/observ"
)

// printStageTimings prints one line per entry: "entry.js: graph 1.2 ms emit 0.1 ms ...".
func printStageTimings(out io.Writer, entry string, timings buildpipeline.Timings) {
	fmt.Fprintf(out, "%s:", entry)
	for _, stage := range buildpipeline.TimedStages() {
		if timings.Has(stage) {
			fmt.Fprintf(out, " %s %.1f ms", stage, toMillis(timings.Duration(stage)))
		}
	}
	fmt.Fprintf(out, " (total %.1f ms)\n", toMillis(timings.Total()))
}

func printTimerReport(out io.Writer, timer *observ.Timer) {
	fmt.Fprint(out, timer.Summary())
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
