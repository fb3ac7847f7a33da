package metrics

import "strings"

// AggregationType says how a metric's values combine over a window of
// periods: flow metrics sum, point-in-time metrics take the latest reading.
type AggregationType string

const (
	AggregationSum    AggregationType = "sum"
	AggregationLatest AggregationType = "latest"
)

func (a AggregationType) Valid() bool {
	return a == AggregationSum || a == AggregationLatest
}

func ParseAggregationType(s string) (AggregationType, bool) {
	a := AggregationType(strings.ToLower(strings.TrimSpace(s)))
	return a, a.Valid()
}

// Symbol is the one-glyph window-total marker shown next to a row total.
func (a AggregationType) Symbol() string {
	if a == AggregationSum {
		return "Σ"
	}
	return "●"
}

// Label is the human explanation behind the symbol.
func (a AggregationType) Label() string {
	if a == AggregationSum {
		return "Sum of visible periods"
	}
	return "Most recent visible value"
}

// Classifier decides a metric's aggregation type from its name. Matching is
// case-insensitive substring matching over two keyword lists: names hitting a
// point keyword are point-in-time regardless of anything else ("Burn Rate" is
// a snapshot even though "burn" marks a flow), names hitting a flow keyword
// sum, and everything unrecognized defaults to latest. Classification is
// total; an explicit per-record override is applied by the cross-tab builder,
// not here.
type Classifier struct {
	flow  []string
	point []string
}

var defaultFlowKeywords = []string{
	"revenue", "mrr", "expense", "spend", "cost", "burn", "cash in", "cash out",
	"bookings", "new customers", "new users", "churned customers",
}

var defaultPointKeywords = []string{"rate"}

// NewClassifier builds a classifier with caller-supplied keyword lists.
// Keywords are lowercased on the way in.
func NewClassifier(flow, point []string) *Classifier {
	return &Classifier{flow: lowerAll(flow), point: lowerAll(point)}
}

// DefaultClassifier carries the stock keyword lists.
func DefaultClassifier() *Classifier {
	return NewClassifier(defaultFlowKeywords, defaultPointKeywords)
}

func (c *Classifier) Classify(metricName string) AggregationType {
	name := strings.ToLower(metricName)
	if containsAny(name, c.point) {
		return AggregationLatest
	}
	if containsAny(name, c.flow) {
		return AggregationSum
	}
	return AggregationLatest
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
