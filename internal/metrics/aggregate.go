package metrics

// Rolling reduces the values of one row over the visible window to its total
// column. Values arrive oldest to newest and must cover exactly the window.
// Flow metrics sum their non-null entries; point-in-time metrics report the
// newest non-null entry. When every entry is null the total is nil, so a
// window with no data never reads as zero.
func Rolling(values []*float64, typ AggregationType) *float64 {
	if typ == AggregationSum {
		var sum float64
		seen := false
		for _, v := range values {
			if v == nil {
				continue
			}
			sum += *v
			seen = true
		}
		if !seen {
			return nil
		}
		return &sum
	}

	for i := len(values) - 1; i >= 0; i-- {
		if values[i] != nil {
			v := *values[i]
			return &v
		}
	}
	return nil
}
