package metrics

import (
	"sort"
	"strings"
	"time"
)

// PeriodType is the reporting cadence of a metric value.
type PeriodType string

const (
	PeriodMonthly   PeriodType = "monthly"
	PeriodQuarterly PeriodType = "quarterly"
	PeriodYearly    PeriodType = "yearly"
)

func (p PeriodType) Valid() bool {
	switch p {
	case PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return true
	}
	return false
}

// ParsePeriodType accepts the cadence names case-insensitively.
func ParsePeriodType(s string) (PeriodType, bool) {
	p := PeriodType(strings.ToLower(strings.TrimSpace(s)))
	return p, p.Valid()
}

// PeriodKey identifies a period by its start date. Keys are compared by
// calendar date, never by string order.
type PeriodKey string

const periodKeyLayout = "2006-01-02"

// Time parses the key as a calendar date. Bare dates and RFC3339 timestamps
// are both accepted; anything else yields the zero time.
func (k PeriodKey) Time() time.Time {
	s := string(k)
	if t, err := time.Parse(periodKeyLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func (k PeriodKey) Before(other PeriodKey) bool {
	a, b := k.Time(), other.Time()
	if a.Equal(b) {
		return k < other
	}
	return a.Before(b)
}

// PeriodKeyOf renders a date as a key.
func PeriodKeyOf(t time.Time) PeriodKey {
	return PeriodKey(t.Format(periodKeyLayout))
}

// PeriodStart returns the first day of the period containing t.
func PeriodStart(p PeriodType, t time.Time) time.Time {
	switch p {
	case PeriodQuarterly:
		q := (int(t.Month()) - 1) / 3
		return time.Date(t.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
	case PeriodYearly:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

// PeriodEnd returns the last day of the period containing t.
func PeriodEnd(p PeriodType, t time.Time) time.Time {
	return NextPeriodStart(p, t).AddDate(0, 0, -1)
}

// NextPeriodStart returns the first day of the period after the one
// containing t.
func NextPeriodStart(p PeriodType, t time.Time) time.Time {
	start := PeriodStart(p, t)
	switch p {
	case PeriodQuarterly:
		return start.AddDate(0, 3, 0)
	case PeriodYearly:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}

// ---- Helpers ----

// sortPeriods orders keys chronologically, oldest first. Unparsable keys sort
// before everything else; ties fall back to string order so the result is
// deterministic.
func sortPeriods(keys []PeriodKey) {
	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].Before(keys[j])
	})
}
