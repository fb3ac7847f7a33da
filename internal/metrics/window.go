package metrics

// DefaultPageSize is how many period columns a metrics table shows at once.
const DefaultPageSize = 4

// Pager maintains the fixed-size visible window over the period axis. Next
// and Prev slide by a single period and clamp at the edges; replacing the
// axis resets the view to the most recent window.
type Pager struct {
	periods []PeriodKey
	size    int
	start   int
}

func NewPager(size int) *Pager {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Pager{size: size}
}

// SetPeriods replaces the axis and resets the window to the newest periods.
func (p *Pager) SetPeriods(periods []PeriodKey) {
	p.periods = append(p.periods[:0], periods...)
	p.start = p.maxStart()
}

// Next slides the window one period toward the present.
func (p *Pager) Next() {
	if p.start < p.maxStart() {
		p.start++
	}
}

// Prev slides the window one period toward the past.
func (p *Pager) Prev() {
	if p.start > 0 {
		p.start--
	}
}

// Start is the axis index of the window's first period.
func (p *Pager) Start() int {
	return p.start
}

// SetStart jumps the window, clamping into the valid range.
func (p *Pager) SetStart(start int) {
	if start < 0 {
		start = 0
	}
	if m := p.maxStart(); start > m {
		start = m
	}
	p.start = start
}

// Bounds is the half-open axis index range of the window.
func (p *Pager) Bounds() (start, end int) {
	end = p.start + p.size
	if end > len(p.periods) {
		end = len(p.periods)
	}
	return p.start, end
}

// Visible returns the windowed periods, oldest first.
func (p *Pager) Visible() []PeriodKey {
	start, end := p.Bounds()
	out := make([]PeriodKey, end-start)
	copy(out, p.periods[start:end])
	return out
}

func (p *Pager) maxStart() int {
	m := len(p.periods) - p.size
	if m < 0 {
		return 0
	}
	return m
}

// VisibleRangeSource reports which period columns are geometrically visible
// right now. Implementations wrap platform measurement; tests hand back
// canned windows.
type VisibleRangeSource interface {
	VisiblePeriods() []PeriodKey
}

// Tracker derives the visible window from measurements. Until the first
// measurement lands, and again whenever the axis changes, it falls back to
// the most recent fixed-size window. Measurements are re-sorted
// chronologically before use and apply last-write-wins, so a stale reading
// never survives a newer one.
type Tracker struct {
	source   VisibleRangeSource
	size     int
	periods  []PeriodKey
	window   []PeriodKey
	measured bool
}

func NewTracker(source VisibleRangeSource, size int) *Tracker {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Tracker{source: source, size: size}
}

// SetPeriods replaces the axis and discards the current measurement; the
// window shows the newest periods until Refresh observes a new reading.
func (t *Tracker) SetPeriods(periods []PeriodKey) {
	t.periods = append(t.periods[:0], periods...)
	t.measured = false
	t.window = t.fallback()
}

// Refresh pulls the current measurement. Empty readings are ignored so a
// transient blank never blanks the table.
func (t *Tracker) Refresh() {
	if t.source == nil {
		return
	}
	measured := t.source.VisiblePeriods()
	if len(measured) == 0 {
		return
	}
	window := make([]PeriodKey, len(measured))
	copy(window, measured)
	sortPeriods(window)
	t.window = window
	t.measured = true
}

// Visible returns the current window, oldest first.
func (t *Tracker) Visible() []PeriodKey {
	out := make([]PeriodKey, len(t.window))
	copy(out, t.window)
	return out
}

// Measured reports whether the window comes from a real measurement rather
// than the fallback.
func (t *Tracker) Measured() bool {
	return t.measured
}

func (t *Tracker) fallback() []PeriodKey {
	start := len(t.periods) - t.size
	if start < 0 {
		start = 0
	}
	out := make([]PeriodKey, len(t.periods)-start)
	copy(out, t.periods[start:])
	return out
}
