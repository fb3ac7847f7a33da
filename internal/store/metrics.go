package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ridgelinevc/portfolio-backend/internal/db"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
)

type metricStore struct {
	pool db.Pool
}

func NewMetricStore(pool db.Pool) *metricStore {
	return &metricStore{pool: pool}
}

const upsertMetricSQL = `
INSERT INTO company_metric_values
	(company_id, metric_name, period_type, period_start, period_end, value, source,
	 ai_confidence, aggregation, submitted_by, change_reason, submitted_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (company_id, metric_name, period_type, period_start) DO UPDATE SET
	period_end = EXCLUDED.period_end,
	value = EXCLUDED.value,
	source = EXCLUDED.source,
	ai_confidence = EXCLUDED.ai_confidence,
	aggregation = EXCLUDED.aggregation,
	submitted_by = EXCLUDED.submitted_by,
	change_reason = EXCLUDED.change_reason,
	updated_at = EXCLUDED.updated_at`

// Upsert writes one metric cell. Resubmitting the same
// (company, metric, period type, period start) overwrites in place; the
// original submitted_at survives the overwrite.
func (s *metricStore) Upsert(ctx context.Context, m *models.MetricValue) error {
	now := time.Now()
	if m.SubmittedAt.IsZero() {
		m.SubmittedAt = now
	}
	m.UpdatedAt = now

	raw, err := json.Marshal(m.Value)
	if err != nil {
		return errs.NewDatabaseError("write", "failed to encode metric value", err)
	}
	_, err = s.pool.Exec(ctx, upsertMetricSQL,
		m.CompanyID, m.MetricName, string(m.PeriodType), m.PeriodStart.Time(), m.PeriodEnd.Time(),
		raw, string(m.Source), m.AIConfidence, string(m.Aggregation), m.SubmittedBy, m.ChangeReason,
		m.SubmittedAt, m.UpdatedAt)
	if err != nil {
		return errs.NewDatabaseError("write", "failed to upsert metric value", err)
	}
	return nil
}

const listMetricsSQL = `
SELECT company_id, metric_name, period_type, period_start, period_end, value, source,
	ai_confidence, aggregation, submitted_by, change_reason, submitted_at, updated_at
FROM company_metric_values
WHERE company_id = $1 AND ($2 = '' OR period_type = $2)
ORDER BY metric_name, period_start`

// List returns every stored metric value for a company, optionally filtered
// to one period type. Pass an empty period type for all.
func (s *metricStore) List(ctx context.Context, companyID string, periodType metrics.PeriodType) ([]*models.MetricValue, error) {
	rows, err := s.pool.Query(ctx, listMetricsSQL, companyID, string(periodType))
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list metric values", err)
	}
	defer rows.Close()

	var values []*models.MetricValue
	for rows.Next() {
		m, err := scanMetricValue(rows)
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to scan metric value", err)
		}
		values = append(values, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list metric values", err)
	}
	return values, nil
}

const insertHistorySQL = `
INSERT INTO metric_value_history
	(company_id, metric_name, period_type, period_start, value, source,
	 ai_confidence, change_reason, submitted_by, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// AppendHistory records one audit entry. History rows are never updated or
// deleted.
func (s *metricStore) AppendHistory(ctx context.Context, a *models.MetricAudit) error {
	if a.RecordedAt.IsZero() {
		a.RecordedAt = time.Now()
	}
	raw, err := json.Marshal(a.Value)
	if err != nil {
		return errs.NewDatabaseError("write", "failed to encode history value", err)
	}
	_, err = s.pool.Exec(ctx, insertHistorySQL,
		a.CompanyID, a.MetricName, string(a.PeriodType), a.PeriodStart.Time(),
		raw, string(a.Source), a.AIConfidence, a.ChangeReason, a.SubmittedBy, a.RecordedAt)
	if err != nil {
		return errs.NewDatabaseError("write", "failed to append metric history", err)
	}
	return nil
}

const historySQL = `
SELECT id, company_id, metric_name, period_type, period_start, value, source,
	ai_confidence, change_reason, submitted_by, recorded_at
FROM metric_value_history
WHERE company_id = $1 AND metric_name = $2
ORDER BY recorded_at DESC, id DESC`

// History returns the audit trail for one metric, newest first.
func (s *metricStore) History(ctx context.Context, companyID, metricName string) ([]*models.MetricAudit, error) {
	rows, err := s.pool.Query(ctx, historySQL, companyID, metricName)
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to read metric history", err)
	}
	defer rows.Close()

	var entries []*models.MetricAudit
	for rows.Next() {
		var (
			a          models.MetricAudit
			periodType string
			start      time.Time
			raw        []byte
			source     string
		)
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.MetricName, &periodType, &start,
			&raw, &source, &a.AIConfidence, &a.ChangeReason, &a.SubmittedBy, &a.RecordedAt); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to scan history entry", err)
		}
		a.PeriodType = metrics.PeriodType(periodType)
		a.PeriodStart = metrics.PeriodKeyOf(start)
		a.Source = metrics.Source(source)
		if err := json.Unmarshal(raw, &a.Value); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to decode history value", err)
		}
		entries = append(entries, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to read metric history", err)
	}
	return entries, nil
}

// ---- Helpers ----

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetricValue(row rowScanner) (*models.MetricValue, error) {
	var (
		m          models.MetricValue
		periodType string
		start      time.Time
		end        time.Time
		raw        []byte
		source     string
		agg        string
	)
	if err := row.Scan(&m.CompanyID, &m.MetricName, &periodType, &start, &end,
		&raw, &source, &m.AIConfidence, &agg, &m.SubmittedBy, &m.ChangeReason,
		&m.SubmittedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.PeriodType = metrics.PeriodType(periodType)
	m.PeriodStart = metrics.PeriodKeyOf(start)
	m.PeriodEnd = metrics.PeriodKeyOf(end)
	m.Source = metrics.Source(source)
	m.Aggregation = metrics.AggregationType(agg)
	if err := json.Unmarshal(raw, &m.Value); err != nil {
		return nil, err
	}
	return &m, nil
}
