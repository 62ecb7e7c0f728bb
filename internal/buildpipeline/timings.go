package buildpipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"minipack/internal/diag"
)

type stageTiming struct {
	Stage      Stage   `json:"stage"`
	DurationMS float64 `json:"duration_ms"`
}

type timingPayload struct {
	Kind    string        `json:"kind"`
	Path    string        `json:"path,omitempty"`
	TotalMS float64       `json:"total_ms"`
	Stages  []stageTiming `json:"stages"`
}

// timedStages is the order stages are reported in.
var timedStages = []Stage{StageGraph, StageEmit, StageWrite}

// TimingDiagnostic packs the stage timings of one entry into an OBS info
// diagnostic. The note carries the JSON payload for machine consumers.
func TimingDiagnostic(entry string, t Timings) diag.Diagnostic {
	payload := timingPayload{Kind: "build", Path: entry, TotalMS: millis(t.Total())}
	for _, stage := range timedStages {
		if t.Has(stage) {
			payload.Stages = append(payload.Stages, stageTiming{Stage: stage, DurationMS: millis(t.Duration(stage))})
		}
	}
	d := diag.New(diag.SevInfo, diag.ObsTimings, entry,
		fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS))
	data, err := json.Marshal(payload)
	if err != nil {
		return d
	}
	return d.WithHint(string(data))
}

// TimedStages returns the stages in report order.
func TimedStages() []Stage {
	return append([]Stage(nil), timedStages...)
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
