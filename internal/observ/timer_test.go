package observ

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimerTrackAndSummary(t *testing.T) {
	tm := NewTimer()
	if err := tm.Track("graph entry.js", func() (string, error) { return "3 modules", nil }); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	if err := tm.Track("emit entry.js", func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("Track returned %v", err)
	}

	rep := tm.Report()
	if len(rep.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(rep.Phases))
	}
	if rep.Phases[0].Note != "3 modules" || rep.Phases[1].Note != "failed" {
		t.Errorf("unexpected notes: %+v", rep.Phases)
	}
	sum := tm.Summary()
	for _, want := range []string{"timings:", "graph entry.js", "3 modules", "total"} {
		if !strings.Contains(sum, want) {
			t.Errorf("summary missing %q:\n%s", want, sum)
		}
	}
}

func TestTimerOpenPhasesAreSkipped(t *testing.T) {
	tm := NewTimer()
	tm.Begin("never closed")
	h := tm.Begin("closed")
	tm.End(h, "first")
	tm.End(h, "second")

	rep := tm.Report()
	if len(rep.Phases) != 1 || rep.Phases[0].Note != "first" {
		t.Errorf("phases = %+v", rep.Phases)
	}
}

func TestTimerWallClockOfParallelPhases(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := tm.Begin("entry")
			time.Sleep(20 * time.Millisecond)
			tm.End(h, "")
		}()
	}
	wg.Wait()

	rep := tm.Report()
	if len(rep.Phases) != 4 {
		t.Fatalf("expected 4 phases, got %d", len(rep.Phases))
	}
	if rep.WallMS <= 0 || rep.WallMS > rep.TotalMS {
		t.Errorf("wall %.2f ms, total %.2f ms", rep.WallMS, rep.TotalMS)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if err := tm.Track("y", func() (string, error) { return "", nil }); err != nil {
		t.Fatal(err)
	}
	if len(tm.Report().Phases) != 0 || tm.Summary() != "" {
		t.Error("nil timer should report nothing")
	}
}
