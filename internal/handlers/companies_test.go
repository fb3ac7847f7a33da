package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
	"github.com/ridgelinevc/portfolio-backend/internal/middleware"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
)

// --- Shared test plumbing ---

type stubResponseHandler struct {
	writeSuccessCalled bool
	writeSuccessStatus int
	writeSuccessData   any

	handleErrorCalled bool
	handleError       error

	writeErrorCalled bool
	writeErrorStatus int
	writeErrorCode   string
	writeErrorMsg    string
}

func (s *stubResponseHandler) WriteSuccess(w http.ResponseWriter, _ *http.Request, status int, data any) {
	s.writeSuccessCalled = true
	s.writeSuccessStatus = status
	s.writeSuccessData = data

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"success":true}`))
}

func (s *stubResponseHandler) WriteError(w http.ResponseWriter, _ *http.Request, status int, code, message string) {
	s.writeErrorCalled = true
	s.writeErrorStatus = status
	s.writeErrorCode = code
	s.writeErrorMsg = message
	w.WriteHeader(status)
}

func (s *stubResponseHandler) HandleError(w http.ResponseWriter, _ *http.Request, err error) {
	s.handleErrorCalled = true
	s.handleError = err
	w.WriteHeader(http.StatusInternalServerError)
}

// withUID injects a UID into the request context.
func withUID(r *http.Request, uid string) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UIDKey, uid)
	return r.WithContext(ctx)
}

// withChiParam injects a chi URL parameter into the request context. Calls
// chain, so nested-route params can be layered onto one request.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// --- Stub service ---

type stubCompanyService struct {
	createCompany *models.Company
	createErr     error
	getCompany    *models.Company
	getErr        error
	listCompanies []*models.Company
	listErr       error

	lastCreateReq dto.CreateCompanyRequest
	lastGetID     string
	lastUID       string
}

func (s *stubCompanyService) Create(_ context.Context, uid string, req dto.CreateCompanyRequest) (*models.Company, error) {
	s.lastUID = uid
	s.lastCreateReq = req
	return s.createCompany, s.createErr
}

func (s *stubCompanyService) Get(_ context.Context, uid, companyID string) (*models.Company, error) {
	s.lastUID = uid
	s.lastGetID = companyID
	return s.getCompany, s.getErr
}

func (s *stubCompanyService) List(_ context.Context, uid string) ([]*models.Company, error) {
	s.lastUID = uid
	return s.listCompanies, s.listErr
}

// --- Tests ---

func TestListCompanies_OK(t *testing.T) {
	svc := &stubCompanyService{
		listCompanies: []*models.Company{{CompanyID: "c1", Name: "Initech"}},
	}
	resp := &stubResponseHandler{}
	h := NewCompanyHandlers(&Deps{ResponseHandler: resp, CompanySvc: svc})

	req := httptest.NewRequest(http.MethodGet, "/companies", nil)
	req = withUID(req, "uid1")
	rr := httptest.NewRecorder()
	h.ListCompanies(rr, req)

	if !resp.writeSuccessCalled || resp.writeSuccessStatus != http.StatusOK {
		t.Fatalf("expected WriteSuccess with 200, got called=%v status=%d", resp.writeSuccessCalled, resp.writeSuccessStatus)
	}
	if svc.lastUID != "uid1" {
		t.Errorf("expected uid1 passed to service, got %s", svc.lastUID)
	}
}

func TestCreateCompany_OK(t *testing.T) {
	svc := &stubCompanyService{
		createCompany: &models.Company{CompanyID: "c1", Name: "Initech"},
	}
	resp := &stubResponseHandler{}
	h := NewCompanyHandlers(&Deps{ResponseHandler: resp, CompanySvc: svc})

	body := `{"name":"Initech","sector":"b2b-saas"}`
	req := httptest.NewRequest(http.MethodPost, "/companies", strings.NewReader(body))
	req = withUID(req, "uid1")
	rr := httptest.NewRecorder()
	h.CreateCompany(rr, req)

	if !resp.writeSuccessCalled || resp.writeSuccessStatus != http.StatusCreated {
		t.Fatalf("expected WriteSuccess with 201, got called=%v status=%d", resp.writeSuccessCalled, resp.writeSuccessStatus)
	}
	if svc.lastCreateReq.Name != "Initech" {
		t.Errorf("unexpected name passed to service: %s", svc.lastCreateReq.Name)
	}
}

func TestCreateCompany_InvalidJSON(t *testing.T) {
	svc := &stubCompanyService{}
	resp := &stubResponseHandler{}
	h := NewCompanyHandlers(&Deps{ResponseHandler: resp, CompanySvc: svc})

	req := httptest.NewRequest(http.MethodPost, "/companies", strings.NewReader("not-json"))
	req = withUID(req, "uid1")
	rr := httptest.NewRecorder()
	h.CreateCompany(rr, req)

	if !resp.handleErrorCalled {
		t.Fatal("expected HandleError on invalid JSON")
	}
	if resp.writeSuccessCalled {
		t.Fatal("WriteSuccess should not be called on invalid JSON")
	}
}

func TestGetCompany_PassesParam(t *testing.T) {
	svc := &stubCompanyService{getCompany: &models.Company{CompanyID: "c1"}}
	resp := &stubResponseHandler{}
	h := NewCompanyHandlers(&Deps{ResponseHandler: resp, CompanySvc: svc})

	req := httptest.NewRequest(http.MethodGet, "/companies/c1", nil)
	req = withUID(req, "uid1")
	req = withChiParam(req, "companyId", "c1")
	rr := httptest.NewRecorder()
	h.GetCompany(rr, req)

	if !resp.writeSuccessCalled {
		t.Fatal("expected WriteSuccess")
	}
	if svc.lastGetID != "c1" {
		t.Errorf("expected companyId=c1, got %s", svc.lastGetID)
	}
}

func TestGetCompany_NotFound(t *testing.T) {
	svc := &stubCompanyService{getErr: errs.NewNotFoundError("company not found")}
	resp := &stubResponseHandler{}
	h := NewCompanyHandlers(&Deps{ResponseHandler: resp, CompanySvc: svc})

	req := httptest.NewRequest(http.MethodGet, "/companies/missing", nil)
	req = withUID(req, "uid1")
	req = withChiParam(req, "companyId", "missing")
	rr := httptest.NewRecorder()
	h.GetCompany(rr, req)

	if !resp.handleErrorCalled {
		t.Fatal("expected HandleError on not found")
	}
	var nferr *errs.NotFoundError
	if !errors.As(resp.handleError, &nferr) {
		t.Errorf("expected NotFoundError to reach the response handler, got %v", resp.handleError)
	}
}
