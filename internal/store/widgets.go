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

type widgetStore struct {
	pool db.Pool
}

func NewWidgetStore(pool db.Pool) *widgetStore {
	return &widgetStore{pool: pool}
}

func (s *widgetStore) Create(ctx context.Context, uid string, w *models.Widget) error {
	now := time.Now()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now

	cfg, err := json.Marshal(w.Config)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to encode widget config", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO dashboard_widgets
			(widget_id, user_id, widget_type, visualization, position, config, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		w.WidgetID, uid, w.Type, w.Visualization, w.Position, cfg, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to create widget", err)
	}
	return nil
}

func (s *widgetStore) Get(ctx context.Context, uid, widgetID string) (*models.Widget, error) {
	var (
		w   models.Widget
		cfg []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT widget_id, widget_type, visualization, position, config, created_at, updated_at
		 FROM dashboard_widgets WHERE user_id = $1 AND widget_id = $2`,
		uid, widgetID).Scan(&w.WidgetID, &w.Type, &w.Visualization, &w.Position, &cfg, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NewNotFoundError("widget not found")
	}
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to get widget", err)
	}
	if err := json.Unmarshal(cfg, &w.Config); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse widget config", err)
	}
	return &w, nil
}

func (s *widgetStore) List(ctx context.Context, uid string) ([]*models.Widget, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT widget_id, widget_type, visualization, position, config, created_at, updated_at
		 FROM dashboard_widgets WHERE user_id = $1 ORDER BY position`,
		uid)
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list widgets", err)
	}
	defer rows.Close()

	widgets := make([]*models.Widget, 0)
	for rows.Next() {
		var (
			w   models.Widget
			cfg []byte
		)
		if err := rows.Scan(&w.WidgetID, &w.Type, &w.Visualization, &w.Position, &cfg, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to scan widget", err)
		}
		if err := json.Unmarshal(cfg, &w.Config); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse widget config", err)
		}
		widgets = append(widgets, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list widgets", err)
	}
	return widgets, nil
}

func (s *widgetStore) Update(ctx context.Context, uid string, w *models.Widget) error {
	w.UpdatedAt = time.Now()

	cfg, err := json.Marshal(w.Config)
	if err != nil {
		return errs.NewDatabaseError("update", "failed to encode widget config", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE dashboard_widgets
		 SET widget_type = $3, visualization = $4, position = $5, config = $6, updated_at = $7
		 WHERE user_id = $1 AND widget_id = $2`,
		uid, w.WidgetID, w.Type, w.Visualization, w.Position, cfg, w.UpdatedAt)
	if err != nil {
		return errs.NewDatabaseError("update", "failed to update widget", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFoundError("widget not found")
	}
	return nil
}

func (s *widgetStore) Delete(ctx context.Context, uid, widgetID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM dashboard_widgets WHERE user_id = $1 AND widget_id = $2`,
		uid, widgetID)
	if err != nil {
		return errs.NewDatabaseError("delete", "failed to delete widget", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFoundError("widget not found")
	}
	return nil
}

func (s *widgetStore) Count(ctx context.Context, uid string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM dashboard_widgets WHERE user_id = $1`, uid).Scan(&n)
	if err != nil {
		return 0, errs.NewDatabaseError("read", "failed to count widgets", err)
	}
	return n, nil
}

// BulkUpdatePositions applies a reorder in one transaction so a half-applied
// reorder never becomes visible.
func (s *widgetStore) BulkUpdatePositions(ctx context.Context, uid string, positions map[string]int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errs.NewDatabaseError("update", "failed to begin reorder", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	for widgetID, pos := range positions {
		tag, err := tx.Exec(ctx,
			`UPDATE dashboard_widgets SET position = $3, updated_at = $4
			 WHERE user_id = $1 AND widget_id = $2`,
			uid, widgetID, pos, now)
		if err != nil {
			return errs.NewDatabaseError("update", "failed to update widget position", err)
		}
		if tag.RowsAffected() == 0 {
			return errs.NewNotFoundError("widget not found")
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return errs.NewDatabaseError("update", "failed to commit reorder", err)
	}
	return nil
}
