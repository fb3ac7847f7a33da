package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ridgelinevc/portfolio-backend/internal/db"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
)

type reportStore struct {
	pool db.Pool
}

func NewReportStore(pool db.Pool) *reportStore {
	return &reportStore{pool: pool}
}

func (s *reportStore) Create(ctx context.Context, uid string, r *models.ReportTemplate) error {
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	sections, err := json.Marshal(r.Sections)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to encode report sections", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO report_templates
			(report_id, user_id, name, period_type, sections, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ReportID, uid, r.Name, r.PeriodType, sections, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to create report template", err)
	}
	return nil
}

func (s *reportStore) Get(ctx context.Context, uid, reportID string) (*models.ReportTemplate, error) {
	var (
		r        models.ReportTemplate
		sections []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT report_id, user_id, name, period_type, sections, created_at, updated_at
		 FROM report_templates WHERE user_id = $1 AND report_id = $2`,
		uid, reportID).Scan(&r.ReportID, &r.UserID, &r.Name, &r.PeriodType, &sections, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NewNotFoundError("report not found")
	}
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to get report template", err)
	}
	if err := json.Unmarshal(sections, &r.Sections); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse report sections", err)
	}
	return &r, nil
}

func (s *reportStore) List(ctx context.Context, uid string) ([]*models.ReportTemplate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT report_id, user_id, name, period_type, sections, created_at, updated_at
		 FROM report_templates WHERE user_id = $1 ORDER BY created_at DESC`,
		uid)
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list report templates", err)
	}
	defer rows.Close()

	reports := make([]*models.ReportTemplate, 0)
	for rows.Next() {
		var (
			r        models.ReportTemplate
			sections []byte
		)
		if err := rows.Scan(&r.ReportID, &r.UserID, &r.Name, &r.PeriodType, &sections, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to scan report template", err)
		}
		if err := json.Unmarshal(sections, &r.Sections); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse report sections", err)
		}
		reports = append(reports, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list report templates", err)
	}
	return reports, nil
}
