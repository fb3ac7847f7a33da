package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/ridgelinevc/portfolio-backend/internal/dto"
)

// WriteCSV renders the report as one CSV stream: a short preamble, then each
// section as its own grid separated by a blank record.
func WriteCSV(w io.Writer, data dto.ReportData) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	preamble := [][]string{
		{"Report", data.Name},
		{"Period type", data.PeriodType},
		{"Generated", data.GeneratedAt.UTC().Format(time.RFC3339)},
	}
	for _, rec := range preamble {
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("export: write csv preamble: %w", err)
		}
	}

	for _, sec := range data.Sections {
		if err := cw.Write([]string{}); err != nil {
			return fmt.Errorf("export: write csv separator: %w", err)
		}
		if err := cw.Write([]string{"Section", sec.Title, sec.CompanyName}); err != nil {
			return fmt.Errorf("export: write csv section header: %w", err)
		}

		header := append([]string{"Metric", "Aggregation"}, periodLabels(sec.Periods)...)
		header = append(header, "Total")
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("export: write csv header: %w", err)
		}

		for _, row := range sec.Rows {
			rec := append([]string{row.MetricName, row.AggregationType}, row.Values...)
			rec = append(rec, row.Total)
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("export: write csv row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
