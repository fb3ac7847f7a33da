package charts

import (
	"bytes"
	"io"

	echarts "github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
)

const defaultChartHeight = "360px"

// TrendLine renders the given metric series as a smoothed line chart over
// the full period axis. Cells with no record become gaps, not zeroes.
func TrendLine(title, subtitle string, axis []metrics.PeriodKey, series []metrics.Series) (string, error) {
	line := echarts.NewLine()
	line.SetGlobalOptions(globalOptions(title, subtitle)...)
	line.SetXAxis(axisLabels(axis))
	for _, s := range series {
		line.AddSeries(s.MetricName, toLineData(s.Points))
	}
	line.SetSeriesOptions(echarts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return render(line)
}

// BreakdownPie renders a single period's composition as a pie chart.
func BreakdownPie(title, subtitle string, slices []metrics.BreakdownSlice) (string, error) {
	pie := echarts.NewPie()
	pie.SetGlobalOptions(globalOptions(title, subtitle)...)
	pie.AddSeries(title, toPieData(slices))
	return render(pie)
}

func globalOptions(title, subtitle string) []echarts.GlobalOpts {
	return []echarts.GlobalOpts{
		echarts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		echarts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  "100%",
			Height: defaultChartHeight,
		}),
		echarts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		echarts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		echarts.WithToolboxOpts(opts.Toolbox{Show: opts.Bool(true)}),
	}
}

func axisLabels(axis []metrics.PeriodKey) []string {
	labels := make([]string, len(axis))
	for i, k := range axis {
		labels[i] = string(k)
	}
	return labels
}

func toLineData(points []metrics.SeriesPoint) []opts.LineData {
	data := make([]opts.LineData, len(points))
	for i, p := range points {
		if p.Value == nil {
			// echarts renders "-" as an empty data point.
			data[i] = opts.LineData{Value: "-"}
			continue
		}
		data[i] = opts.LineData{Value: *p.Value}
	}
	return data
}

func toPieData(slices []metrics.BreakdownSlice) []opts.PieData {
	data := make([]opts.PieData, len(slices))
	for i, s := range slices {
		data[i] = opts.PieData{Name: s.MetricName, Value: s.Value}
	}
	return data
}

func render(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
