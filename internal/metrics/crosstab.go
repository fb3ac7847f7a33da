package metrics

import (
	"strings"
	"time"
)

// Source tags where a stored value came from.
type Source string

const (
	SourceManual      Source = "manual"
	SourceAIExtracted Source = "ai_extracted"
	SourceOverride    Source = "override"
)

func (s Source) Valid() bool {
	switch s {
	case SourceManual, SourceAIExtracted, SourceOverride:
		return true
	}
	return false
}

// Record is one stored metric observation, already decoded at the boundary.
type Record struct {
	MetricName   string
	PeriodType   PeriodType
	PeriodStart  PeriodKey
	PeriodEnd    PeriodKey
	Value        RawValue
	Source       Source
	AIConfidence *float64
	Aggregation  AggregationType // explicit override, empty when classified
	SubmittedAt  time.Time
	UpdatedAt    time.Time
}

// Cell is one (metric, period) entry of the grid. A cell always exists for
// every period on the axis; Value is nil both when no record exists and when
// the stored value would not normalize. An empty Source distinguishes the
// former.
type Cell struct {
	PeriodStart  PeriodKey  `json:"periodStart"`
	PeriodEnd    PeriodKey  `json:"periodEnd,omitempty"`
	Value        *float64   `json:"value"`
	Source       Source     `json:"source,omitempty"`
	AIConfidence *float64   `json:"aiConfidence,omitempty"`
	SubmittedAt  *time.Time `json:"submittedAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// HasRecord reports whether any stored record backs this cell.
func (c Cell) HasRecord() bool {
	return c.Source != ""
}

// Row is one metric across the whole period axis. Cells align one to one
// with CrossTab.Periods.
type Row struct {
	MetricName   string          `json:"metricName"`
	PeriodType   PeriodType      `json:"periodType"`
	Aggregation  AggregationType `json:"aggregationType"`
	Source       Source          `json:"source,omitempty"`
	AIConfidence *float64        `json:"aiConfidence,omitempty"`
	Cells        []Cell          `json:"periods"`
}

// Values returns the row's normalized values over the full axis.
func (r *Row) Values() []*float64 {
	out := make([]*float64, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.Value
	}
	return out
}

// ValuesIn returns the values for the half-open axis index range [start, end),
// clamped to the row.
func (r *Row) ValuesIn(start, end int) []*float64 {
	if start < 0 {
		start = 0
	}
	if end > len(r.Cells) {
		end = len(r.Cells)
	}
	if start >= end {
		return nil
	}
	return r.Values()[start:end]
}

// CrossTab is the dense metric-by-period grid for one company and fetch
// cycle. It is immutable once built; windowing and ordering derive views.
type CrossTab struct {
	Periods []PeriodKey `json:"periods"`
	Rows    []Row       `json:"rows"`

	index map[string]int
}

// BuildCrossTab reconciles a flat record list into the grid. Records group by
// exact metric name in first-seen order; within a metric, a later record for
// the same period start replaces the earlier one. The period axis is the
// union of every period start, sorted by calendar date, and every row carries
// a cell for every axis period.
func BuildCrossTab(records []Record, classifier *Classifier) *CrossTab {
	if classifier == nil {
		classifier = DefaultClassifier()
	}

	var names []string
	groups := make(map[string]map[PeriodKey]Record)
	overrides := make(map[string]AggregationType)
	axisSeen := make(map[PeriodKey]struct{})
	var axis []PeriodKey

	for _, rec := range records {
		group, ok := groups[rec.MetricName]
		if !ok {
			group = make(map[PeriodKey]Record)
			groups[rec.MetricName] = group
			names = append(names, rec.MetricName)
		}
		group[rec.PeriodStart] = rec
		if rec.Aggregation.Valid() {
			overrides[rec.MetricName] = rec.Aggregation
		}
		if _, ok := axisSeen[rec.PeriodStart]; !ok {
			axisSeen[rec.PeriodStart] = struct{}{}
			axis = append(axis, rec.PeriodStart)
		}
	}
	sortPeriods(axis)

	ct := &CrossTab{
		Periods: axis,
		Rows:    make([]Row, 0, len(names)),
		index:   make(map[string]int, len(names)),
	}

	for _, name := range names {
		group := groups[name]
		row := Row{
			MetricName: name,
			Cells:      make([]Cell, len(axis)),
		}
		for i, period := range axis {
			rec, ok := group[period]
			if !ok {
				row.Cells[i] = Cell{PeriodStart: period}
				continue
			}
			row.Cells[i] = Cell{
				PeriodStart:  period,
				PeriodEnd:    rec.PeriodEnd,
				Value:        rec.Value.Ptr(),
				Source:       rec.Source,
				AIConfidence: rec.AIConfidence,
				SubmittedAt:  timePtr(rec.SubmittedAt),
				UpdatedAt:    timePtr(rec.UpdatedAt),
			}
			if row.PeriodType == "" {
				row.PeriodType = rec.PeriodType
			}
		}
		// Row provenance follows the newest recorded cell.
		for i := len(row.Cells) - 1; i >= 0; i-- {
			if row.Cells[i].HasRecord() {
				row.Source = row.Cells[i].Source
				row.AIConfidence = row.Cells[i].AIConfidence
				break
			}
		}
		if override, ok := overrides[name]; ok {
			row.Aggregation = override
		} else {
			row.Aggregation = classifier.Classify(name)
		}

		lower := strings.ToLower(name)
		if _, ok := ct.index[lower]; !ok {
			ct.index[lower] = len(ct.Rows)
		}
		ct.Rows = append(ct.Rows, row)
	}

	return ct
}

// Row looks a row up by metric name, exact match first and case-insensitive
// second, so callers never re-implement the matching policy.
func (ct *CrossTab) Row(name string) (*Row, bool) {
	for i := range ct.Rows {
		if ct.Rows[i].MetricName == name {
			return &ct.Rows[i], true
		}
	}
	if i, ok := ct.index[strings.ToLower(name)]; ok {
		return &ct.Rows[i], true
	}
	return nil, false
}

// MetricNames lists the row names in grid order.
func (ct *CrossTab) MetricNames() []string {
	out := make([]string, len(ct.Rows))
	for i := range ct.Rows {
		out[i] = ct.Rows[i].MetricName
	}
	return out
}

// PeriodIndex returns the axis position of a period key, or -1.
func (ct *CrossTab) PeriodIndex(k PeriodKey) int {
	for i, p := range ct.Periods {
		if p == k {
			return i
		}
	}
	return -1
}

// ---- Chart reductions ----

// SeriesPoint is one period of a chart series.
type SeriesPoint struct {
	Period PeriodKey `json:"period"`
	Value  *float64  `json:"value"`
}

// Series is one metric's values over the full axis, for time-series charts.
type Series struct {
	MetricName string        `json:"metricName"`
	Points     []SeriesPoint `json:"points"`
}

// Series reduces the grid to per-metric time series limited to the named
// metrics. Names match case-insensitively; unknown names are skipped.
func (ct *CrossTab) Series(metricNames ...string) []Series {
	out := make([]Series, 0, len(metricNames))
	for _, name := range metricNames {
		row, ok := ct.Row(name)
		if !ok {
			continue
		}
		s := Series{MetricName: row.MetricName, Points: make([]SeriesPoint, len(row.Cells))}
		for i, c := range row.Cells {
			s.Points[i] = SeriesPoint{Period: c.PeriodStart, Value: c.Value}
		}
		out = append(out, s)
	}
	return out
}

// BreakdownSlice is one positive contribution of a single-period breakdown.
type BreakdownSlice struct {
	MetricName string  `json:"metricName"`
	Value      float64 `json:"value"`
}

// Breakdown reduces the grid to the most recent period in which any of the
// named metrics has data, keeping positive values only. The period is chosen
// by date comparison, and the zero key with no slices means no named metric
// has data anywhere.
func (ct *CrossTab) Breakdown(metricNames ...string) (PeriodKey, []BreakdownSlice) {
	rows := make([]*Row, 0, len(metricNames))
	for _, name := range metricNames {
		if row, ok := ct.Row(name); ok {
			rows = append(rows, row)
		}
	}
	for i := len(ct.Periods) - 1; i >= 0; i-- {
		found := false
		var slices []BreakdownSlice
		for _, row := range rows {
			v := row.Cells[i].Value
			if v == nil {
				continue
			}
			found = true
			if *v > 0 {
				slices = append(slices, BreakdownSlice{MetricName: row.MetricName, Value: *v})
			}
		}
		if found {
			return ct.Periods[i], slices
		}
	}
	return "", nil
}

// ---- Helpers ----

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
