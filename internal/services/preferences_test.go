package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
)

func TestPreferencePut_RoundTrip(t *testing.T) {
	svc := NewPreferenceService(newFakePrefs())

	put, err := svc.Put(context.Background(), "uid1", dto.PutPreferenceRequest{
		Key:   "table_density",
		Value: json.RawMessage(`{"mode":"compact"}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if put.Key != "table_density" {
		t.Errorf("unexpected key: %s", put.Key)
	}

	got, err := svc.Get(context.Background(), "uid1", "table_density")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded struct {
		Mode string `json:"mode"`
	}
	if err := json.Unmarshal(got.Value, &decoded); err != nil {
		t.Fatalf("stored blob does not round-trip: %v", err)
	}
	if decoded.Mode != "compact" {
		t.Errorf("expected mode compact, got %q", decoded.Mode)
	}
}

func TestPreferenceGet_MissingKeyIsNull(t *testing.T) {
	svc := NewPreferenceService(newFakePrefs())

	got, err := svc.Get(context.Background(), "uid1", "never_written")
	if err != nil {
		t.Fatalf("a missing key must not be an error: %v", err)
	}
	if got.Value != nil {
		t.Errorf("expected nil value for missing key, got %s", got.Value)
	}
	// A nil RawMessage marshals as JSON null on the wire.
	b, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded["value"] != nil {
		t.Errorf("expected null value on the wire, got %v", decoded["value"])
	}
}

func TestPreferencePut_RejectsInvalidJSON(t *testing.T) {
	svc := NewPreferenceService(newFakePrefs())
	_, err := svc.Put(context.Background(), "uid1", dto.PutPreferenceRequest{
		Key:   "broken",
		Value: json.RawMessage(`{"mode":`),
	})
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestPreference_KeyRequired(t *testing.T) {
	svc := NewPreferenceService(newFakePrefs())

	if _, err := svc.Get(context.Background(), "uid1", "  "); err == nil {
		t.Error("expected error for blank key on Get")
	}
	_, err := svc.Put(context.Background(), "uid1", dto.PutPreferenceRequest{Value: json.RawMessage(`1`)})
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestPreferencePut_PerUserIsolation(t *testing.T) {
	prefs := newFakePrefs()
	svc := NewPreferenceService(prefs)

	if _, err := svc.Put(context.Background(), "uid1", dto.PutPreferenceRequest{
		Key:   "theme",
		Value: json.RawMessage(`"dark"`),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Get(context.Background(), "uid2", "theme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Value != nil {
		t.Errorf("uid2 must not see uid1's preference, got %s", got.Value)
	}
}
