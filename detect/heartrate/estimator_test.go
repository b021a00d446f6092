package heartrate

import "testing"

// feedBeats drives the estimator with beats spaced interval ticks apart
// and returns the last estimate.
func feedBeats(e *Estimator, beats, interval int) int {
	rate := e.Interval()
	for b := 0; b < beats; b++ {
		rate = e.RecordTick(true)
		for i := 0; i < interval-1; i++ {
			rate = e.RecordTick(false)
		}
	}
	return rate
}

func TestNew_Validation(t *testing.T) {
	for _, delay := range []int{-1, 501} {
		if _, err := New(delay); err == nil {
			t.Errorf("New(%d): expected error", delay)
		}
	}
	if _, err := New(300); err != nil {
		t.Errorf("New(300): %v", err)
	}
}

func TestDefaultBeforeBeats(t *testing.T) {
	e, _ := New(300)
	for range 1000 {
		if got := e.RecordTick(false); got != DefaultInterval {
			t.Fatalf("no beats: got %d, want %d", got, DefaultInterval)
		}
	}
}

func TestSingleBeatKeepsDefault(t *testing.T) {
	// The first beat is a warm-up artifact and is discarded, so a
	// single beat never updates the estimate.
	e, _ := New(300)
	if got := feedBeats(e, 1, 500); got != DefaultInterval {
		t.Errorf("one beat: got %d, want %d", got, DefaultInterval)
	}
}

func TestRegularBeatsYieldInterval(t *testing.T) {
	const interval = 700
	e, _ := New(300)
	if got := feedBeats(e, 5, interval); got != interval {
		t.Errorf("5 regular beats: got %d, want %d", got, interval)
	}
}

func TestEstimateAfterFourthBeat(t *testing.T) {
	const interval = 650
	e, _ := New(300)
	// Beat 1 discarded; beats 2..4 give two exact gaps.
	feedBeats(e, 4, interval)
	if got := e.Interval(); got != interval {
		t.Errorf("after 4th beat: got %d, want %d", got, interval)
	}
}

func TestHistoryBounded(t *testing.T) {
	e, _ := New(300)
	// Long run of slow beats, then faster ones; the estimate must
	// follow the recent gaps once the old beats age out of the
	// four-entry history.
	feedBeats(e, 5, 900)
	got := feedBeats(e, 6, 600)
	if got != 600 {
		t.Errorf("after tempo change: got %d, want 600", got)
	}
}

func TestMixedGapsAverage(t *testing.T) {
	e, _ := New(300)
	feedBeats(e, 2, 600) // first discarded, one retained
	feedBeats(e, 1, 700) // lands 600 ticks after the retained beat
	feedBeats(e, 1, 800) // lands 700 ticks after that
	if got := e.Interval(); got != 650 {
		t.Errorf("mixed gaps: got %d, want 650", got)
	}
}

func TestEstimateAlwaysPositive(t *testing.T) {
	e, _ := New(0)
	for i := range 5000 {
		rate := e.RecordTick(i%2 == 0) // absurdly fast peak flags
		if rate <= 0 {
			t.Fatalf("tick %d: non-positive estimate %d", i, rate)
		}
	}
}

func TestNextBeatOffset(t *testing.T) {
	e, _ := New(300)
	if _, ok := e.NextBeatOffset(); ok {
		t.Error("no beats: ok should be false")
	}

	feedBeats(e, 3, 700) // estimate becomes 700
	// The last beat has aged one tick on its own call plus 699 quiet
	// ticks, so beats[0] == 700.
	offset, ok := e.NextBeatOffset()
	if !ok {
		t.Fatal("expected a retained beat")
	}
	want := 700 + 300 - 700
	if offset != want {
		t.Errorf("offset: got %d, want %d", offset, want)
	}
}
