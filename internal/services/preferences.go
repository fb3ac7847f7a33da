package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
)

// preferenceStore is the storage interface for opaque preference blobs.
type preferenceStore interface {
	Get(ctx context.Context, userID, key string) (*models.Preference, error)
	Put(ctx context.Context, p *models.Preference) error
}

type preferenceService struct {
	store preferenceStore
}

func NewPreferenceService(store preferenceStore) *preferenceService {
	return &preferenceService{store: store}
}

// Get returns the stored blob for one key. A never-written key yields a JSON
// null value, not an error.
func (s *preferenceService) Get(ctx context.Context, uid, key string) (dto.PreferenceResponse, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return dto.PreferenceResponse{}, errs.NewValidationError("key is required")
	}
	p, err := s.store.Get(ctx, uid, key)
	if err != nil {
		return dto.PreferenceResponse{}, err
	}
	resp := dto.PreferenceResponse{Key: key}
	if p != nil {
		resp.Value = p.Value
	}
	return resp, nil
}

// Put overwrites the blob for one key. The value is opaque; the only
// requirement is that it is valid JSON.
func (s *preferenceService) Put(ctx context.Context, uid string, req dto.PutPreferenceRequest) (dto.PreferenceResponse, error) {
	key := strings.TrimSpace(req.Key)
	if key == "" {
		return dto.PreferenceResponse{}, errs.NewValidationError("key is required")
	}
	if len(req.Value) == 0 || !json.Valid(req.Value) {
		return dto.PreferenceResponse{}, errs.NewValidationError("value must be valid JSON")
	}
	p := &models.Preference{UserID: uid, Key: key, Value: req.Value}
	if err := s.store.Put(ctx, p); err != nil {
		return dto.PreferenceResponse{}, err
	}
	return dto.PreferenceResponse{Key: key, Value: p.Value}, nil
}
