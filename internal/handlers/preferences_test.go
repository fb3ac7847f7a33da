package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
)

// --- Stub service ---

type stubPreferenceService struct {
	getResp dto.PreferenceResponse
	getErr  error
	putResp dto.PreferenceResponse
	putErr  error

	lastGetKey string
	lastPutReq dto.PutPreferenceRequest
}

func (s *stubPreferenceService) Get(_ context.Context, _, key string) (dto.PreferenceResponse, error) {
	s.lastGetKey = key
	return s.getResp, s.getErr
}

func (s *stubPreferenceService) Put(_ context.Context, _ string, req dto.PutPreferenceRequest) (dto.PreferenceResponse, error) {
	s.lastPutReq = req
	return s.putResp, s.putErr
}

// --- Tests ---

func TestGetPreference_PassesKey(t *testing.T) {
	svc := &stubPreferenceService{
		getResp: dto.PreferenceResponse{Key: "metricOrder:c1", Value: json.RawMessage(`["Revenue"]`)},
	}
	resp := &stubResponseHandler{}
	h := NewPreferenceHandlers(&Deps{ResponseHandler: resp, PreferenceSvc: svc})

	req := httptest.NewRequest(http.MethodGet, "/preferences?key=metricOrder:c1", nil)
	req = withUID(req, "uid1")
	rr := httptest.NewRecorder()
	h.GetPreference(rr, req)

	if !resp.writeSuccessCalled {
		t.Fatal("expected WriteSuccess")
	}
	if svc.lastGetKey != "metricOrder:c1" {
		t.Errorf("key = %q, want metricOrder:c1", svc.lastGetKey)
	}
}

func TestGetPreference_Missing(t *testing.T) {
	svc := &stubPreferenceService{getErr: errs.NewNotFoundError("preference not found")}
	resp := &stubResponseHandler{}
	h := NewPreferenceHandlers(&Deps{ResponseHandler: resp, PreferenceSvc: svc})

	req := httptest.NewRequest(http.MethodGet, "/preferences?key=unset", nil)
	req = withUID(req, "uid1")
	rr := httptest.NewRecorder()
	h.GetPreference(rr, req)

	if !resp.handleErrorCalled {
		t.Fatal("expected HandleError on missing preference")
	}
}

func TestPutPreference_OK(t *testing.T) {
	svc := &stubPreferenceService{
		putResp: dto.PreferenceResponse{Key: "theme", Value: json.RawMessage(`"dark"`)},
	}
	resp := &stubResponseHandler{}
	h := NewPreferenceHandlers(&Deps{ResponseHandler: resp, PreferenceSvc: svc})

	body := `{"key":"theme","value":"dark"}`
	req := httptest.NewRequest(http.MethodPut, "/preferences", strings.NewReader(body))
	req = withUID(req, "uid1")
	rr := httptest.NewRecorder()
	h.PutPreference(rr, req)

	if !resp.writeSuccessCalled || resp.writeSuccessStatus != http.StatusOK {
		t.Fatal("expected WriteSuccess 200")
	}
	if svc.lastPutReq.Key != "theme" || string(svc.lastPutReq.Value) != `"dark"` {
		t.Errorf("unexpected request passed to service: %+v", svc.lastPutReq)
	}
}

func TestPutPreference_InvalidJSON(t *testing.T) {
	svc := &stubPreferenceService{}
	resp := &stubResponseHandler{}
	h := NewPreferenceHandlers(&Deps{ResponseHandler: resp, PreferenceSvc: svc})

	req := httptest.NewRequest(http.MethodPut, "/preferences", strings.NewReader("{bad"))
	req = withUID(req, "uid1")
	rr := httptest.NewRecorder()
	h.PutPreference(rr, req)

	if !resp.handleErrorCalled {
		t.Fatal("expected HandleError on malformed body")
	}
}
