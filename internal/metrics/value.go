package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RawValue is a submitted metric value as it arrives over the wire or out of
// storage: a plain number, a numeric-looking string, or an object carrying
// "value" or "raw". It decodes once into a tagged form; nothing downstream
// re-inspects the original shape. Decoding is total: any shape that cannot be
// read as a number normalizes to null rather than failing.
type RawValue struct {
	raw json.RawMessage
	num float64
	ok  bool
}

// NumberValue builds a RawValue holding a plain number.
func NumberValue(f float64) RawValue {
	b, _ := json.Marshal(f)
	return RawValue{raw: b, num: f, ok: true}
}

// StringValue builds a RawValue holding a string, normalizing it on the way in.
func StringValue(s string) RawValue {
	b, _ := json.Marshal(s)
	num, ok := parseNumeric(s)
	return RawValue{raw: b, num: num, ok: ok}
}

// NullValue builds an empty RawValue.
func NullValue() RawValue {
	return RawValue{}
}

func (v *RawValue) UnmarshalJSON(b []byte) error {
	v.raw = append(v.raw[:0], b...)
	v.num, v.ok = normalize(b)
	return nil
}

// MarshalJSON re-emits the value exactly as it was submitted, so provenance
// survives a store round trip.
func (v RawValue) MarshalJSON() ([]byte, error) {
	if len(v.raw) == 0 {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// Num reports the normalized numeric value and whether one exists.
func (v RawValue) Num() (float64, bool) {
	return v.num, v.ok
}

// Ptr returns the normalized value, nil when the value is null.
func (v RawValue) Ptr() *float64 {
	if !v.ok {
		return nil
	}
	n := v.num
	return &n
}

// ---- Normalization ----

func normalize(b []byte) (float64, bool) {
	var decoded any
	if err := json.Unmarshal(b, &decoded); err != nil {
		return 0, false
	}
	switch t := decoded.(type) {
	case float64:
		return finite(t)
	case string:
		return parseNumeric(t)
	case map[string]any:
		inner := t["value"]
		if inner == nil {
			inner = t["raw"]
		}
		switch s := inner.(type) {
		case float64:
			return finite(s)
		case string:
			return parseNumeric(s)
		}
		return 0, false
	default:
		return 0, false
	}
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseNumeric reads the longest decimal prefix of s, so "42.5%" yields 42.5
// and "$1200" yields nothing.
func parseNumeric(s string) (float64, bool) {
	p := numericPrefix(strings.TrimSpace(s))
	if p == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(p, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func numericPrefix(s string) string {
	i, n := 0, len(s)
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := false
	for i < n && s[i] >= '0' && s[i] <= '9' {
		i++
		digits = true
	}
	if i < n && s[i] == '.' {
		j := i + 1
		for j < n && s[j] >= '0' && s[j] <= '9' {
			j++
			digits = true
		}
		if digits {
			i = j
		}
	}
	if !digits {
		return ""
	}
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < n && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < n && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > j {
			i = k
		}
	}
	return s[:i]
}

// ---- Formatting ----

var percentKeywords = []string{
	"rate", "margin", "churn", "retention", "conversion", "nrr", "grr",
}

var currencyKeywords = []string{
	"revenue", "mrr", "arr", "burn", "runway", "cac", "ltv", "arpu", "aov",
	"expense", "cost", "spend", "income", "profit", "ebitda", "cash", "gmv",
	"invested", "salary", "valuation",
}

// Format renders a normalized value for display. The metric name picks the
// style: percent-ish names get one decimal and a percent sign, currency-ish
// names get a dollar prefix with a K/M/B magnitude suffix, everything else is
// a grouped plain number. nil renders as an em dash.
func Format(v *float64, metricName string) string {
	if v == nil {
		return "—"
	}
	name := strings.ToLower(metricName)
	switch {
	case containsAny(name, percentKeywords):
		return fmt.Sprintf("%.1f%%", *v)
	case containsAny(name, currencyKeywords):
		return formatCurrency(*v)
	default:
		return formatGrouped(*v)
	}
}

func formatCurrency(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	switch {
	case v >= 1e9:
		return sign + "$" + trimZero(v/1e9) + "B"
	case v >= 1e6:
		return sign + "$" + trimZero(v/1e6) + "M"
	case v >= 1e3:
		return sign + "$" + trimZero(v/1e3) + "K"
	default:
		return sign + "$" + trimZero(v)
	}
}

// trimZero keeps one decimal unless it is zero: 2.5 → "2.5", 2.0 → "2".
func trimZero(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}

// formatGrouped renders with thousands separators, dropping the fraction for
// whole numbers.
func formatGrouped(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := math.Trunc(v)
	frac := v - whole
	s := groupThousands(strconv.FormatFloat(whole, 'f', 0, 64))
	if frac > 0 {
		dec := strconv.FormatFloat(frac, 'f', 2, 64)
		s += strings.TrimPrefix(dec, "0")
	}
	return sign + s
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
