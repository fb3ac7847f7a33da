package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ridgelinevc/portfolio-backend/internal/db"
	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
)

var seedInvestor string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a demo portfolio",
	Long:  "Creates three companies with sparse monthly metric series and grants the given investor access to all of them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		n, err := seedPortfolio(ctx, pool, seedInvestor)
		if err != nil {
			return err
		}

		log.Info("demo portfolio seeded", "investor", seedInvestor, "metric_values", n)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedInvestor, "investor", "", "investor id to grant access (required)")
	seedCmd.MarkFlagRequired("investor")
	rootCmd.AddCommand(seedCmd)
}

// seedSeries is one metric's sparse history: month offsets from the series
// start that actually have a value, and the value at each.
type seedSeries struct {
	metric string
	values map[int]float64
}

type seedCompany struct {
	name   string
	sector string
	series []seedSeries
}

var demoPortfolio = []seedCompany{
	{
		name:   "Initech",
		sector: "b2b-saas",
		series: []seedSeries{
			{metric: "Revenue", values: map[int]float64{0: 82000, 1: 91000, 3: 104000, 4: 112000, 5: 121500}},
			{metric: "Burn", values: map[int]float64{0: 140000, 1: 138000, 2: 150000, 4: 131000}},
			{metric: "Headcount", values: map[int]float64{0: 22, 3: 26, 5: 29}},
		},
	},
	{
		name:   "Hooli Labs",
		sector: "devtools",
		series: []seedSeries{
			{metric: "Revenue", values: map[int]float64{0: 12000, 1: 15000, 2: 19000, 3: 26000, 4: 33000, 5: 41000}},
			{metric: "NPS", values: map[int]float64{2: 41, 5: 48}},
		},
	},
	{
		name:   "Vandelay Industries",
		sector: "logistics",
		series: []seedSeries{
			{metric: "ARR", values: map[int]float64{1: 480000, 3: 540000, 5: 610000}},
			{metric: "Churn Rate", values: map[int]float64{3: 0.031, 5: 0.024}},
		},
	},
}

// seedPortfolio COPYs the demo rows in. Metric values land directly in the
// values table with no audit trail, which is fine for throwaway demo data.
func seedPortfolio(ctx context.Context, pool db.Pool, investorID string) (int64, error) {
	classifier := metrics.DefaultClassifier()
	seriesStart := metrics.PeriodStart(metrics.PeriodMonthly, time.Now().AddDate(0, -6, 0))

	var companies, relationships, values [][]any
	for _, c := range demoPortfolio {
		companyID := uuid.New().String()
		companies = append(companies, []any{companyID, c.name, c.sector})
		relationships = append(relationships, []any{investorID, companyID, "investor"})

		for _, s := range c.series {
			agg := classifier.Classify(s.metric)
			for offset, value := range s.values {
				start := seriesStart.AddDate(0, offset, 0)
				end := metrics.PeriodEnd(metrics.PeriodMonthly, start)
				raw, _ := json.Marshal(value)
				values = append(values, []any{
					companyID, s.metric, string(metrics.PeriodMonthly),
					start, end, string(raw),
					string(metrics.SourceManual), string(agg), investorID,
				})
			}
		}
	}

	if _, err := db.CopyRows(ctx, pool, "companies",
		[]string{"company_id", "name", "sector"}, companies); err != nil {
		return 0, err
	}
	if _, err := db.CopyRows(ctx, pool, "investor_company_relationships",
		[]string{"investor_id", "company_id", "role"}, relationships); err != nil {
		return 0, err
	}
	n, err := db.CopyRows(ctx, pool, "company_metric_values",
		[]string{"company_id", "metric_name", "period_type", "period_start", "period_end", "value", "source", "aggregation", "submitted_by"},
		values)
	if err != nil {
		return 0, fmt.Errorf("seed metric values: %w", err)
	}
	return n, nil
}
