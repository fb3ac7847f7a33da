package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/tealeg/xlsx/v2"

	"github.com/ridgelinevc/portfolio-backend/internal/dto"
)

// WriteXLSX renders the report as a workbook with one sheet per section.
func WriteXLSX(w io.Writer, data dto.ReportData) error {
	f := xlsx.NewFile()
	used := make(map[string]int)

	for _, sec := range data.Sections {
		sheet, err := f.AddSheet(sheetName(sec.Title, used))
		if err != nil {
			return fmt.Errorf("export: add sheet: %w", err)
		}

		title := sheet.AddRow()
		title.AddCell().SetString(sec.Title)
		title.AddCell().SetString(sec.CompanyName)

		header := sheet.AddRow()
		header.AddCell().SetString("Metric")
		header.AddCell().SetString("Aggregation")
		for _, p := range sec.Periods {
			header.AddCell().SetString(string(p))
		}
		header.AddCell().SetString("Total")

		for _, row := range sec.Rows {
			xr := sheet.AddRow()
			xr.AddCell().SetString(row.MetricName)
			xr.AddCell().SetString(row.AggregationType)
			for _, v := range row.Values {
				xr.AddCell().SetString(v)
			}
			xr.AddCell().SetString(row.Total)
		}
	}

	return f.Write(w)
}

var sheetNameSanitizer = strings.NewReplacer(
	"[", "", "]", "", ":", "", "*", "", "?", "", "/", "-", "\\", "-",
)

// sheetName keeps workbook sheet names legal: banned characters stripped,
// 31-character limit respected, duplicates numbered.
func sheetName(title string, used map[string]int) string {
	name := strings.TrimSpace(sheetNameSanitizer.Replace(title))
	if name == "" {
		name = "Section"
	}
	if r := []rune(name); len(r) > 28 {
		name = string(r[:28])
	}
	used[strings.ToLower(name)]++
	if n := used[strings.ToLower(name)]; n > 1 {
		name = fmt.Sprintf("%s %d", name, n)
	}
	return name
}
