package metrics

import "testing"

func monthAxis(n int) []PeriodKey {
	out := make([]PeriodKey, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, PeriodKeyOf(PeriodStart(PeriodMonthly, dateUTC(2024, 1, 1)).AddDate(0, i, 0)))
	}
	return out
}

func TestPagerSlidesAndClamps(t *testing.T) {
	p := NewPager(4)
	p.SetPeriods(monthAxis(10))

	if p.Start() != 6 {
		t.Fatalf("initial window must show the newest periods: start %d", p.Start())
	}

	p.SetStart(0)
	want := []int{1, 2, 3, 4, 5, 6, 6, 6}
	for i, w := range want {
		p.Next()
		if p.Start() != w {
			t.Fatalf("next %d mismatch: got %d want %d", i+1, p.Start(), w)
		}
	}

	p.SetStart(0)
	p.Prev()
	if p.Start() != 0 {
		t.Fatalf("prev at the left edge must clamp: got %d", p.Start())
	}
}

func TestPagerVisibleWindow(t *testing.T) {
	axis := monthAxis(10)
	p := NewPager(4)
	p.SetPeriods(axis)

	visible := p.Visible()
	if len(visible) != 4 {
		t.Fatalf("window size mismatch: got %d", len(visible))
	}
	for i, k := range axis[6:] {
		if visible[i] != k {
			t.Fatalf("window content mismatch at %d: got %q want %q", i, visible[i], k)
		}
	}

	start, end := p.Bounds()
	if start != 6 || end != 10 {
		t.Fatalf("bounds mismatch: got [%d, %d)", start, end)
	}
}

func TestPagerShortAxis(t *testing.T) {
	p := NewPager(4)
	p.SetPeriods(monthAxis(2))

	if p.Start() != 0 {
		t.Fatalf("short axis must pin to zero: got %d", p.Start())
	}
	if got := p.Visible(); len(got) != 2 {
		t.Fatalf("short axis window mismatch: got %d", len(got))
	}
	p.Next()
	if p.Start() != 0 {
		t.Fatalf("short axis must not slide: got %d", p.Start())
	}
}

func TestPagerResetsOnNewPeriods(t *testing.T) {
	p := NewPager(4)
	p.SetPeriods(monthAxis(10))
	p.SetStart(2)

	p.SetPeriods(monthAxis(12))
	if p.Start() != 8 {
		t.Fatalf("new data must reset to the newest window: got %d", p.Start())
	}
}

type cannedRangeSource struct {
	periods []PeriodKey
}

func (c *cannedRangeSource) VisiblePeriods() []PeriodKey { return c.periods }

func TestTrackerFallbackBeforeMeasurement(t *testing.T) {
	axis := monthAxis(10)
	tr := NewTracker(&cannedRangeSource{}, 4)
	tr.SetPeriods(axis)

	got := tr.Visible()
	if len(got) != 4 || got[0] != axis[6] || got[3] != axis[9] {
		t.Fatalf("fallback must be the newest fixed window: %v", got)
	}
	if tr.Measured() {
		t.Fatal("no measurement has landed yet")
	}

	tr.Refresh()
	if tr.Measured() {
		t.Fatal("empty measurements must be ignored")
	}
}

func TestTrackerMeasurementsAreSorted(t *testing.T) {
	axis := monthAxis(6)
	source := &cannedRangeSource{periods: []PeriodKey{axis[3], axis[1], axis[2]}}
	tr := NewTracker(source, 4)
	tr.SetPeriods(axis)

	tr.Refresh()
	got := tr.Visible()
	if len(got) != 3 || got[0] != axis[1] || got[1] != axis[2] || got[2] != axis[3] {
		t.Fatalf("measured window must be chronological: %v", got)
	}
	if !tr.Measured() {
		t.Fatal("measurement must be recorded")
	}
}

func TestTrackerLastWriteWins(t *testing.T) {
	axis := monthAxis(6)
	source := &cannedRangeSource{periods: []PeriodKey{axis[0], axis[1]}}
	tr := NewTracker(source, 4)
	tr.SetPeriods(axis)
	tr.Refresh()

	source.periods = []PeriodKey{axis[4], axis[5]}
	tr.Refresh()

	got := tr.Visible()
	if len(got) != 2 || got[0] != axis[4] {
		t.Fatalf("newest measurement must win: %v", got)
	}
}

func TestTrackerResetOnDataChange(t *testing.T) {
	axis := monthAxis(6)
	source := &cannedRangeSource{periods: []PeriodKey{axis[0], axis[1]}}
	tr := NewTracker(source, 4)
	tr.SetPeriods(axis)
	tr.Refresh()

	tr.SetPeriods(monthAxis(8))
	if tr.Measured() {
		t.Fatal("axis change must discard the stale measurement")
	}
	got := tr.Visible()
	if len(got) != 4 {
		t.Fatalf("fallback window mismatch: %v", got)
	}
}
