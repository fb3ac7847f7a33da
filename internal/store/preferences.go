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

type preferenceStore struct {
	pool db.Pool
}

func NewPreferenceStore(pool db.Pool) *preferenceStore {
	return &preferenceStore{pool: pool}
}

const getPreferenceSQL = `
SELECT pref_value, updated_at FROM user_preferences
WHERE user_id = $1 AND pref_key = $2`

// Get returns the stored blob for one key, or nil when the user has never
// written that key. Absence is not an error.
func (s *preferenceStore) Get(ctx context.Context, userID, key string) (*models.Preference, error) {
	p := &models.Preference{UserID: userID, Key: key}
	var raw []byte
	err := s.pool.QueryRow(ctx, getPreferenceSQL, userID, key).Scan(&raw, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to get preference", err)
	}
	p.Value = json.RawMessage(raw)
	return p, nil
}

const putPreferenceSQL = `
INSERT INTO user_preferences (user_id, pref_key, pref_value, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, pref_key) DO UPDATE SET
	pref_value = EXCLUDED.pref_value,
	updated_at = EXCLUDED.updated_at`

// Put overwrites the blob for one key. Concurrent writers race and the last
// write wins, which is the intended behavior for preference data.
func (s *preferenceStore) Put(ctx context.Context, p *models.Preference) error {
	p.UpdatedAt = time.Now()
	if _, err := s.pool.Exec(ctx, putPreferenceSQL, p.UserID, p.Key, []byte(p.Value), p.UpdatedAt); err != nil {
		return errs.NewDatabaseError("write", "failed to put preference", err)
	}
	return nil
}
