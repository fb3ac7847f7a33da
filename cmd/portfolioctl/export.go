package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ridgelinevc/portfolio-backend/internal/db"
	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/export"
	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
	"github.com/ridgelinevc/portfolio-backend/internal/store"
)

var (
	exportCompanyID  string
	exportFormat     string
	exportPeriodType string
	exportOut        string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one company's metric grid to disk",
	Long:  "Builds the company's full cross-tab straight from the database and writes it as CSV or XLSX. Unlike the HTTP export this skips access checks and windowing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		data, err := buildExport(ctx, pool, exportCompanyID, exportPeriodType)
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = export.Filename(data.Name, exportFormat)
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		defer f.Close()

		if err := export.Write(f, exportFormat, data); err != nil {
			return err
		}

		log.Info("grid exported", "company", exportCompanyID, "file", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportCompanyID, "company", "", "company id (required)")
	exportCmd.Flags().StringVar(&exportFormat, "format", dto.FormatCSV, "csv or xlsx")
	exportCmd.Flags().StringVar(&exportPeriodType, "period-type", string(metrics.PeriodMonthly), "monthly, quarterly, or yearly")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (defaults next to the binary)")
	exportCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(exportCmd)
}

// buildExport shapes the whole cross-tab as a one-section report so the same
// renderers serve the CLI and the HTTP download.
func buildExport(ctx context.Context, pool db.Pool, companyID, periodType string) (dto.ReportData, error) {
	pt, ok := metrics.ParsePeriodType(periodType)
	if !ok {
		return dto.ReportData{}, fmt.Errorf("period type %q is not monthly, quarterly, or yearly", periodType)
	}

	cstore := store.NewCompanyStore(pool)
	mstore := store.NewMetricStore(pool)

	company, err := cstore.Get(ctx, companyID)
	if err != nil {
		return dto.ReportData{}, err
	}
	records, err := mstore.List(ctx, companyID, pt)
	if err != nil {
		return dto.ReportData{}, err
	}

	rec := make([]metrics.Record, len(records))
	for i, v := range records {
		rec[i] = v.Record()
	}
	ct := metrics.BuildCrossTab(rec, nil)

	rows := make([]dto.ReportRow, 0, len(ct.Rows))
	for i := range ct.Rows {
		row := &ct.Rows[i]
		values := row.ValuesIn(0, len(ct.Periods))
		formatted := make([]string, len(values))
		for j, v := range values {
			formatted[j] = metrics.Format(v, row.MetricName)
		}
		total := metrics.Rolling(values, row.Aggregation)
		rows = append(rows, dto.ReportRow{
			MetricName:      row.MetricName,
			AggregationType: string(row.Aggregation),
			Values:          formatted,
			Total:           metrics.Format(total, row.MetricName),
		})
	}

	return dto.ReportData{
		Name:        company.Name + " metrics",
		PeriodType:  string(pt),
		GeneratedAt: time.Now(),
		Sections: []dto.ReportSectionData{{
			Title:       company.Name,
			CompanyID:   company.CompanyID,
			CompanyName: company.Name,
			Periods:     ct.Periods,
			Rows:        rows,
		}},
	}, nil
}
