package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ridgelinevc/portfolio-backend/internal/cache"
	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
	"github.com/ridgelinevc/portfolio-backend/pkg/helpers"
)

// --- Fakes ---

type fakeMetricStore struct {
	mu         sync.Mutex
	values     []*models.MetricValue
	audits     []*models.MetricAudit
	history    []*models.MetricAudit
	lastListPT metrics.PeriodType
	upsertErr  error
	listErr    error
	historyErr error
}

func (f *fakeMetricStore) Upsert(_ context.Context, m *models.MetricValue) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = append(f.values, m)
	return nil
}

func (f *fakeMetricStore) List(_ context.Context, companyID string, periodType metrics.PeriodType) ([]*models.MetricValue, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastListPT = periodType
	out := make([]*models.MetricValue, 0, len(f.values))
	for _, v := range f.values {
		if v.CompanyID != companyID {
			continue
		}
		if periodType == "" || v.PeriodType == periodType {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeMetricStore) AppendHistory(_ context.Context, a *models.MetricAudit) error {
	if f.historyErr != nil {
		return f.historyErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, a)
	return nil
}

func (f *fakeMetricStore) History(_ context.Context, _, _ string) ([]*models.MetricAudit, error) {
	return f.history, nil
}

type fakeAccess struct {
	granted map[string]bool
	err     error
}

func accessFor(pairs ...[2]string) *fakeAccess {
	f := &fakeAccess{granted: make(map[string]bool)}
	for _, p := range pairs {
		f.granted[p[0]+"|"+p[1]] = true
	}
	return f
}

func (f *fakeAccess) HasAccess(_ context.Context, investorID, companyID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.granted[investorID+"|"+companyID], nil
}

type fakePrefs struct {
	mu    sync.Mutex
	prefs map[string]*models.Preference
}

func newFakePrefs() *fakePrefs {
	return &fakePrefs{prefs: make(map[string]*models.Preference)}
}

func (f *fakePrefs) Get(_ context.Context, userID, key string) (*models.Preference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prefs[userID+"|"+key], nil
}

func (f *fakePrefs) Put(_ context.Context, p *models.Preference) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefs[p.UserID+"|"+p.Key] = p
	return nil
}

func (f *fakePrefs) get(userID, key string) *models.Preference {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prefs[userID+"|"+key]
}

func storedValue(company, name, periodType, start string, val float64) *models.MetricValue {
	pt, _ := metrics.ParsePeriodType(periodType)
	startT := metrics.PeriodKey(start).Time()
	return &models.MetricValue{
		CompanyID:   company,
		MetricName:  name,
		PeriodType:  pt,
		PeriodStart: metrics.PeriodKeyOf(metrics.PeriodStart(pt, startT)),
		PeriodEnd:   metrics.PeriodKeyOf(metrics.PeriodEnd(pt, startT)),
		Value:       metrics.NumberValue(val),
		Source:      metrics.SourceManual,
		SubmittedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newMetricService(store *fakeMetricStore, access *fakeAccess, prefs *fakePrefs, debounce time.Duration) *metricService {
	return NewMetricService(store, access, prefs, cache.NewCrossTabCache(time.Minute), 4, debounce)
}

// --- Submit tests ---

func TestSubmitMetric_SnapsPeriodBounds(t *testing.T) {
	store := &fakeMetricStore{}
	svc := newMetricService(store, accessFor([2]string{"uid1", "c1"}), newFakePrefs(), 0)

	m, err := svc.Submit(context.Background(), "uid1", "c1", dto.SubmitMetricRequest{
		MetricName:  "Revenue",
		PeriodType:  "monthly",
		PeriodStart: "2025-01-15",
		Value:       metrics.NumberValue(42000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.PeriodStart != "2025-01-01" || m.PeriodEnd != "2025-01-31" {
		t.Errorf("period not snapped to calendar bounds: %s..%s", m.PeriodStart, m.PeriodEnd)
	}
	if m.Source != metrics.SourceManual {
		t.Errorf("expected default source manual, got %s", m.Source)
	}
	if m.SubmittedBy != "uid1" {
		t.Errorf("expected submittedBy uid1, got %s", m.SubmittedBy)
	}
	if len(store.values) != 1 {
		t.Fatalf("expected 1 stored value, got %d", len(store.values))
	}
	if len(store.audits) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(store.audits))
	}
	if store.audits[0].MetricName != "Revenue" {
		t.Errorf("audit entry for wrong metric: %s", store.audits[0].MetricName)
	}
}

func TestSubmitMetric_Validation(t *testing.T) {
	cases := []struct {
		name string
		req  dto.SubmitMetricRequest
	}{
		{"missing name", dto.SubmitMetricRequest{PeriodType: "monthly", PeriodStart: "2025-01-01", Value: metrics.NumberValue(1)}},
		{"bad period type", dto.SubmitMetricRequest{MetricName: "MRR", PeriodType: "weekly", PeriodStart: "2025-01-01", Value: metrics.NumberValue(1)}},
		{"bad period start", dto.SubmitMetricRequest{MetricName: "MRR", PeriodType: "monthly", PeriodStart: "January", Value: metrics.NumberValue(1)}},
		{"bad source", dto.SubmitMetricRequest{MetricName: "MRR", PeriodType: "monthly", PeriodStart: "2025-01-01", Value: metrics.NumberValue(1), Source: "guess"}},
		{"override without reason", dto.SubmitMetricRequest{MetricName: "MRR", PeriodType: "monthly", PeriodStart: "2025-01-01", Value: metrics.NumberValue(1), Source: "override"}},
		{"bad aggregation", dto.SubmitMetricRequest{MetricName: "MRR", PeriodType: "monthly", PeriodStart: "2025-01-01", Value: metrics.NumberValue(1), Aggregation: "median"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeMetricStore{}
			svc := newMetricService(store, accessFor([2]string{"uid1", "c1"}), newFakePrefs(), 0)
			_, err := svc.Submit(context.Background(), "uid1", "c1", tc.req)
			var ve *errs.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			if len(store.values) != 0 {
				t.Error("invalid submission must not reach the store")
			}
		})
	}
}

func TestSubmitMetric_OverrideWithReason(t *testing.T) {
	store := &fakeMetricStore{}
	svc := newMetricService(store, accessFor([2]string{"uid1", "c1"}), newFakePrefs(), 0)

	m, err := svc.Submit(context.Background(), "uid1", "c1", dto.SubmitMetricRequest{
		MetricName:   "MRR",
		PeriodType:   "monthly",
		PeriodStart:  "2025-01-01",
		Value:        metrics.NumberValue(50000),
		Source:       "override",
		ChangeReason: "corrected after audited financials",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Source != metrics.SourceOverride {
		t.Errorf("expected source override, got %s", m.Source)
	}
	if store.audits[0].ChangeReason != "corrected after audited financials" {
		t.Errorf("change reason not carried into audit: %q", store.audits[0].ChangeReason)
	}
}

func TestSubmitMetric_HistoryFailureKeepsValue(t *testing.T) {
	store := &fakeMetricStore{historyErr: errors.New("history table gone")}
	svc := newMetricService(store, accessFor([2]string{"uid1", "c1"}), newFakePrefs(), 0)

	_, err := svc.Submit(helpers.TestCtx(), "uid1", "c1", dto.SubmitMetricRequest{
		MetricName:  "Revenue",
		PeriodType:  "monthly",
		PeriodStart: "2025-01-01",
		Value:       metrics.NumberValue(100),
	})
	if err != nil {
		t.Fatalf("submit must survive a failed audit append: %v", err)
	}
	if len(store.values) != 1 {
		t.Errorf("expected value stored despite audit failure, got %d", len(store.values))
	}
	if len(store.audits) != 0 {
		t.Errorf("expected no audit entries, got %d", len(store.audits))
	}
}

func TestSubmitMetric_NoAccessHidesCompany(t *testing.T) {
	svc := newMetricService(&fakeMetricStore{}, accessFor(), newFakePrefs(), 0)
	_, err := svc.Submit(context.Background(), "uid1", "c1", dto.SubmitMetricRequest{
		MetricName:  "MRR",
		PeriodType:  "monthly",
		PeriodStart: "2025-01-01",
		Value:       metrics.NumberValue(1),
	})
	var nfe *errs.NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
}

func TestSubmitMetric_InvalidatesCachedTables(t *testing.T) {
	store := &fakeMetricStore{values: []*models.MetricValue{
		storedValue("c1", "Revenue", "monthly", "2025-01-01", 100),
	}}
	svc := newMetricService(store, accessFor([2]string{"uid1", "c1"}), newFakePrefs(), 0)

	first, err := svc.Table(context.Background(), "uid1", "c1", "", 0, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.TotalPeriods != 1 {
		t.Fatalf("expected 1 period before submit, got %d", first.TotalPeriods)
	}

	if _, err := svc.Submit(context.Background(), "uid1", "c1", dto.SubmitMetricRequest{
		MetricName:  "Revenue",
		PeriodType:  "monthly",
		PeriodStart: "2025-02-01",
		Value:       metrics.NumberValue(50),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := svc.Table(context.Background(), "uid1", "c1", "", 0, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.TotalPeriods != 2 {
		t.Errorf("stale table served after submit: %d periods", second.TotalPeriods)
	}
}

// --- List tests ---

func TestListMetrics_PassesPeriodFilter(t *testing.T) {
	store := &fakeMetricStore{values: []*models.MetricValue{
		storedValue("c1", "Revenue", "monthly", "2025-01-01", 100),
		storedValue("c1", "Revenue", "quarterly", "2025-01-01", 300),
	}}
	svc := newMetricService(store, accessFor([2]string{"uid1", "c1"}), newFakePrefs(), 0)

	resp, err := svc.List(context.Background(), "uid1", "c1", "monthly")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastListPT != metrics.PeriodMonthly {
		t.Errorf("filter not passed to store: %q", store.lastListPT)
	}
	if len(resp.Metrics) != 1 {
		t.Errorf("expected 1 metric, got %d", len(resp.Metrics))
	}

	_, err = svc.List(context.Background(), "uid1", "c1", "weekly")
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for bad filter, got %T: %v", err, err)
	}
}

// --- Table tests ---

func TestMetricsTable_WindowsLatestPeriods(t *testing.T) {
	store := &fakeMetricStore{}
	for i, v := range []float64{1000, 2000, 3000, 4000, 5000, 6000} {
		start := time.Date(2025, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
		store.values = append(store.values,
			storedValue("c1", "Revenue", "monthly", string(metrics.PeriodKeyOf(start)), v))
	}
	svc := newMetricService(store, accessFor([2]string{"uid1", "c1"}), newFakePrefs(), 0)

	resp, err := svc.Table(context.Background(), "uid1", "c1", "", 4, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalPeriods != 6 || resp.Start != 2 || len(resp.Periods) != 4 {
		t.Fatalf("unexpected window: total=%d start=%d visible=%d", resp.TotalPeriods, resp.Start, len(resp.Periods))
	}
	if resp.Periods[0] != "2025-03-01" || resp.Periods[3] != "2025-06-01" {
		t.Errorf("window not anchored to latest periods: %v", resp.Periods)
	}
	if len(resp.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(resp.Rows))
	}
	row := resp.Rows[0]
	if len(row.Cells) != 4 {
		t.Errorf("expected 4 visible cells, got %d", len(row.Cells))
	}
	if row.Total == nil || *row.Total != 18000 {
		t.Errorf("expected rolling total 18000 over visible window, got %v", row.Total)
	}
	if row.TotalFormatted != "$18K" {
		t.Errorf("unexpected formatted total: %q", row.TotalFormatted)
	}
	if row.TotalSymbol != "Σ" {
		t.Errorf("expected sum symbol for a flow metric, got %q", row.TotalSymbol)
	}
}

func TestMetricsTable_AppliesSavedOrder(t *testing.T) {
	store := &fakeMetricStore{values: []*models.MetricValue{
		storedValue("c1", "Alpha", "monthly", "2025-01-01", 1),
		storedValue("c1", "Zeta", "monthly", "2025-01-01", 2),
	}}
	prefs := newFakePrefs()
	prefs.Put(context.Background(), &models.Preference{
		UserID: "uid1",
		Key:    "metric_order.c1",
		Value:  json.RawMessage(`["zeta","alpha"]`),
	})
	svc := newMetricService(store, accessFor([2]string{"uid1", "c1"}), prefs, 0)

	resp, err := svc.Table(context.Background(), "uid1", "c1", "", 0, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(resp.Rows))
	}
	// Saved order wins, matched case-insensitively, display keeps stored casing.
	if resp.Rows[0].MetricName != "Zeta" || resp.Rows[1].MetricName != "Alpha" {
		t.Errorf("saved order not applied: %s, %s", resp.Rows[0].MetricName, resp.Rows[1].MetricName)
	}
}

// --- SaveOrder tests ---

func TestSaveOrder_AppliesImmediatelyAndPersists(t *testing.T) {
	store := &fakeMetricStore{values: []*models.MetricValue{
		storedValue("c1", "Alpha", "monthly", "2025-01-01", 1),
		storedValue("c1", "Zeta", "monthly", "2025-01-01", 2),
	}}
	prefs := newFakePrefs()
	svc := newMetricService(store, accessFor([2]string{"uid1", "c1"}), prefs, time.Millisecond)

	if err := svc.SaveOrder(context.Background(), "uid1", "c1", dto.ReorderMetricsRequest{
		Order: []string{"Zeta", "Alpha"},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The dragged order shows on the very next table load.
	resp, err := svc.Table(context.Background(), "uid1", "c1", "", 0, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Rows[0].MetricName != "Zeta" {
		t.Errorf("dragged order not visible immediately: %s first", resp.Rows[0].MetricName)
	}

	// The debounced write lands shortly after.
	deadline := time.Now().Add(2 * time.Second)
	var p *models.Preference
	for time.Now().Before(deadline) {
		if p = prefs.get("uid1", "metric_order.c1"); p != nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if p == nil {
		t.Fatal("debounced order write never landed")
	}
	var saved []string
	if err := json.Unmarshal(p.Value, &saved); err != nil {
		t.Fatalf("persisted order is not a string list: %v", err)
	}
	if len(saved) != 2 || saved[0] != "Zeta" || saved[1] != "Alpha" {
		t.Errorf("unexpected persisted order: %v", saved)
	}
}

func TestSaveOrder_EmptyOrder(t *testing.T) {
	svc := newMetricService(&fakeMetricStore{}, accessFor([2]string{"uid1", "c1"}), newFakePrefs(), 0)
	err := svc.SaveOrder(context.Background(), "uid1", "c1", dto.ReorderMetricsRequest{})
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

// --- History tests ---

func TestMetricHistory_ReturnsTrail(t *testing.T) {
	conf := 0.9
	store := &fakeMetricStore{history: []*models.MetricAudit{
		{ID: 2, MetricName: "MRR", Source: metrics.SourceOverride, ChangeReason: "restated"},
		{ID: 1, MetricName: "MRR", Source: metrics.SourceAIExtracted, AIConfidence: &conf},
	}}
	svc := newMetricService(store, accessFor([2]string{"uid1", "c1"}), newFakePrefs(), 0)

	resp, err := svc.History(context.Background(), "uid1", "c1", "MRR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.MetricName != "MRR" {
		t.Errorf("expected metric name MRR, got %s", resp.MetricName)
	}
	if len(resp.History) != 2 || resp.History[0].ID != 2 {
		t.Errorf("unexpected trail: %+v", resp.History)
	}
}
