package store

import (
	"context"
	"fmt"

	"github.com/ridgelinevc/portfolio-backend/internal/db"
)

// schema is applied on startup and by `portfolioctl migrate`. Every statement
// is idempotent so re-running against a live database is safe.
const schema = `
CREATE TABLE IF NOT EXISTS companies (
	company_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	sector TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS investor_company_relationships (
	investor_id TEXT NOT NULL,
	company_id TEXT NOT NULL REFERENCES companies(company_id) ON DELETE CASCADE,
	role TEXT NOT NULL DEFAULT 'investor',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (investor_id, company_id)
);

CREATE TABLE IF NOT EXISTS company_metric_values (
	company_id TEXT NOT NULL REFERENCES companies(company_id) ON DELETE CASCADE,
	metric_name TEXT NOT NULL,
	period_type TEXT NOT NULL,
	period_start DATE NOT NULL,
	period_end DATE NOT NULL,
	value JSONB NOT NULL,
	source TEXT NOT NULL DEFAULT 'manual',
	ai_confidence DOUBLE PRECISION,
	aggregation TEXT NOT NULL DEFAULT '',
	submitted_by TEXT NOT NULL DEFAULT '',
	change_reason TEXT NOT NULL DEFAULT '',
	submitted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (company_id, metric_name, period_type, period_start)
);

CREATE INDEX IF NOT EXISTS idx_metric_values_company ON company_metric_values(company_id, period_type);

CREATE TABLE IF NOT EXISTS metric_value_history (
	id BIGSERIAL PRIMARY KEY,
	company_id TEXT NOT NULL,
	metric_name TEXT NOT NULL,
	period_type TEXT NOT NULL,
	period_start DATE NOT NULL,
	value JSONB NOT NULL,
	source TEXT NOT NULL DEFAULT 'manual',
	ai_confidence DOUBLE PRECISION,
	change_reason TEXT NOT NULL DEFAULT '',
	submitted_by TEXT NOT NULL DEFAULT '',
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_metric_history_cell ON metric_value_history(company_id, metric_name, period_start);

CREATE TABLE IF NOT EXISTS user_preferences (
	user_id TEXT NOT NULL,
	pref_key TEXT NOT NULL,
	pref_value JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, pref_key)
);

CREATE TABLE IF NOT EXISTS dashboard_widgets (
	widget_id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	widget_type TEXT NOT NULL,
	visualization TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL DEFAULT 0,
	config JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_dashboard_widgets_user ON dashboard_widgets(user_id, position);

CREATE TABLE IF NOT EXISTS report_templates (
	report_id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	period_type TEXT NOT NULL DEFAULT 'monthly',
	sections JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_report_templates_user ON report_templates(user_id);

CREATE TABLE IF NOT EXISTS metric_schedules (
	schedule_id TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(company_id) ON DELETE CASCADE,
	metric_names JSONB NOT NULL DEFAULT '[]',
	period_type TEXT NOT NULL DEFAULT 'monthly',
	remind_days INTEGER NOT NULL DEFAULT 0,
	created_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_metric_schedules_company ON metric_schedules(company_id);
`

// Migrate applies the schema. Exec with no arguments uses the simple
// protocol, so the multi-statement blob runs in one round trip.
func Migrate(ctx context.Context, pool db.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
