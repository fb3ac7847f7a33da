package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ridgelinevc/portfolio-backend/internal/db"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
)

type scheduleStore struct {
	pool db.Pool
}

func NewScheduleStore(pool db.Pool) *scheduleStore {
	return &scheduleStore{pool: pool}
}

func (s *scheduleStore) Create(ctx context.Context, sc *models.Schedule) error {
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = time.Now()
	}
	names, err := json.Marshal(sc.MetricNames)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to encode schedule metrics", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO metric_schedules
			(schedule_id, company_id, metric_names, period_type, remind_days, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sc.ScheduleID, sc.CompanyID, names, sc.PeriodType, sc.RemindDays, sc.CreatedBy, sc.CreatedAt)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to create schedule", err)
	}
	return nil
}

func (s *scheduleStore) ListByCompany(ctx context.Context, companyID string) ([]*models.Schedule, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT schedule_id, company_id, metric_names, period_type, remind_days, created_by, created_at
		 FROM metric_schedules WHERE company_id = $1 ORDER BY created_at`,
		companyID)
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list schedules", err)
	}
	defer rows.Close()

	schedules := make([]*models.Schedule, 0)
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to scan schedule", err)
		}
		schedules = append(schedules, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list schedules", err)
	}
	return schedules, nil
}

const listSchedulesForInvestorSQL = `
SELECT s.schedule_id, s.company_id, s.metric_names, s.period_type, s.remind_days, s.created_by, s.created_at
FROM metric_schedules s
JOIN investor_company_relationships r ON r.company_id = s.company_id
WHERE r.investor_id = $1
ORDER BY s.company_id, s.created_at`

// ListForInvestor returns schedules across every company the investor can
// read, for the due roll-up.
func (s *scheduleStore) ListForInvestor(ctx context.Context, investorID string) ([]*models.Schedule, error) {
	rows, err := s.pool.Query(ctx, listSchedulesForInvestorSQL, investorID)
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list schedules", err)
	}
	defer rows.Close()

	schedules := make([]*models.Schedule, 0)
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to scan schedule", err)
		}
		schedules = append(schedules, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list schedules", err)
	}
	return schedules, nil
}

// ---- Helpers ----

func scanSchedule(row rowScanner) (*models.Schedule, error) {
	var (
		sc    models.Schedule
		names []byte
	)
	if err := row.Scan(&sc.ScheduleID, &sc.CompanyID, &names, &sc.PeriodType,
		&sc.RemindDays, &sc.CreatedBy, &sc.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(names, &sc.MetricNames); err != nil {
		return nil, err
	}
	return &sc, nil
}
