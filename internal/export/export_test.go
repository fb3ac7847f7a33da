package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tealeg/xlsx/v2"

	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
)

func sampleReport() dto.ReportData {
	return dto.ReportData{
		ReportID:    "r1",
		Name:        "Q2 LP Update",
		PeriodType:  "monthly",
		GeneratedAt: time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC),
		Sections: []dto.ReportSectionData{
			{
				Title:       "Initech",
				CompanyID:   "c1",
				CompanyName: "Initech",
				Periods:     []metrics.PeriodKey{"2025-02-01", "2025-03-01"},
				Rows: []dto.ReportRow{
					{MetricName: "Revenue", AggregationType: "sum", Values: []string{"$200", "$300"}, Total: "$500"},
					{MetricName: "Headcount", AggregationType: "latest", Values: []string{"—", "—"}, Total: "—"},
				},
			},
		},
	}
}

func TestWriteCSV_GridLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	reader := csv.NewReader(strings.NewReader(buf.String()))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}

	want := [][]string{
		{"Report", "Q2 LP Update"},
		{"Period type", "monthly"},
		{"Generated", "2025-07-10T12:00:00Z"},
		{"Section", "Initech", "Initech"},
		{"Metric", "Aggregation", "2025-02-01", "2025-03-01", "Total"},
		{"Revenue", "sum", "$200", "$300", "$500"},
		{"Headcount", "latest", "—", "—", "—"},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("csv records = %v, want %v", records, want)
	}
}

func TestWriteXLSX_OneSheetPerSection(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := xlsx.OpenBinary(buf.Bytes())
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	if len(f.Sheets) != 1 {
		t.Fatalf("workbook has %d sheets, want 1", len(f.Sheets))
	}

	sheet := f.Sheets[0]
	if sheet.Name != "Initech" {
		t.Errorf("sheet name = %q, want Initech", sheet.Name)
	}
	if got := sheet.Rows[1].Cells[2].String(); got != "2025-02-01" {
		t.Errorf("header period cell = %q, want 2025-02-01", got)
	}
	if got := sheet.Rows[2].Cells[0].String(); got != "Revenue" {
		t.Errorf("first metric cell = %q, want Revenue", got)
	}
	if got := sheet.Rows[2].Cells[4].String(); got != "$500" {
		t.Errorf("total cell = %q, want $500", got)
	}
}

func TestWriteXLSX_SheetNamesSanitizedAndDeduped(t *testing.T) {
	data := sampleReport()
	long := "Portfolio / Deep Dive Overview Long Title"
	data.Sections = []dto.ReportSectionData{
		{Title: long, CompanyName: "A"},
		{Title: long, CompanyName: "B"},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, data); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := xlsx.OpenBinary(buf.Bytes())
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	if len(f.Sheets) != 2 {
		t.Fatalf("workbook has %d sheets, want 2", len(f.Sheets))
	}
	for _, sheet := range f.Sheets {
		if len(sheet.Name) > 31 {
			t.Errorf("sheet name %q exceeds 31 characters", sheet.Name)
		}
		if strings.Contains(sheet.Name, "/") {
			t.Errorf("sheet name %q keeps a banned character", sheet.Name)
		}
		if !strings.HasPrefix(sheet.Name, "Portfolio - Deep") {
			t.Errorf("sheet name %q lost its title prefix", sheet.Name)
		}
	}
	if f.Sheets[0].Name == f.Sheets[1].Name {
		t.Errorf("duplicate sheet names %q", f.Sheets[0].Name)
	}
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, "pdf", sampleReport())
	var ferr *errs.UnsupportedFormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("err = %v, want UnsupportedFormatError", err)
	}
	if _, err := ContentType("pdf"); !errors.As(err, &ferr) {
		t.Fatalf("ContentType err = %v, want UnsupportedFormatError", err)
	}
}

func TestContentTypeAndFilename(t *testing.T) {
	ct, err := ContentType(dto.FormatCSV)
	if err != nil || !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("ContentType(csv) = %q, %v", ct, err)
	}
	ct, err = ContentType(dto.FormatXLSX)
	if err != nil || !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("ContentType(xlsx) = %q, %v", ct, err)
	}

	if got := Filename("Q2 LP Update", "csv"); got != "q2-lp-update.csv" {
		t.Errorf("Filename = %q", got)
	}
	if got := Filename("???", "xlsx"); got != "report.xlsx" {
		t.Errorf("Filename fallback = %q", got)
	}
}
