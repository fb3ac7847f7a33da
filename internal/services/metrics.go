package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/ridgelinevc/portfolio-backend/internal/cache"
	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
	"github.com/ridgelinevc/portfolio-backend/pkg/logger"
)

// metricStore is the Postgres storage interface for metric values and their
// audit trail.
type metricStore interface {
	Upsert(ctx context.Context, m *models.MetricValue) error
	List(ctx context.Context, companyID string, periodType metrics.PeriodType) ([]*models.MetricValue, error)
	AppendHistory(ctx context.Context, a *models.MetricAudit) error
	History(ctx context.Context, companyID, metricName string) ([]*models.MetricAudit, error)
}

// accessChecker guards every company-scoped read and write.
type accessChecker interface {
	HasAccess(ctx context.Context, investorID, companyID string) (bool, error)
}

// orderPreferences persists per-user metric orders as opaque blobs.
type orderPreferences interface {
	Get(ctx context.Context, userID, key string) (*models.Preference, error)
	Put(ctx context.Context, p *models.Preference) error
}

type metricService struct {
	store      metricStore
	access     accessChecker
	prefs      orderPreferences
	cache      *cache.CrossTabCache
	classifier *metrics.Classifier
	pageSize   int
	debounce   time.Duration

	mu       sync.Mutex
	sessions map[string]*metrics.OrderState
}

func NewMetricService(store metricStore, access accessChecker, prefs orderPreferences, ctCache *cache.CrossTabCache, pageSize int, orderDebounce time.Duration) *metricService {
	if pageSize <= 0 {
		pageSize = metrics.DefaultPageSize
	}
	return &metricService{
		store:      store,
		access:     access,
		prefs:      prefs,
		cache:      ctCache,
		classifier: metrics.DefaultClassifier(),
		pageSize:   pageSize,
		debounce:   orderDebounce,
		sessions:   make(map[string]*metrics.OrderState),
	}
}

// --- Public service methods ---

// Submit validates and stores one metric value, appends its audit entry, and
// invalidates the company's cached cross-tabs. Resubmitting the same cell
// overwrites it.
func (s *metricService) Submit(ctx context.Context, uid, companyID string, req dto.SubmitMetricRequest) (*models.MetricValue, error) {
	if err := s.authorize(ctx, uid, companyID); err != nil {
		return nil, err
	}
	m, err := buildMetricValue(companyID, uid, req)
	if err != nil {
		return nil, err
	}
	if err := s.write(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// List returns the raw stored records, the same feed the cross-tab is built
// from. periodType narrows to one cadence; empty means all.
func (s *metricService) List(ctx context.Context, uid, companyID, periodType string) (dto.MetricsResponse, error) {
	if err := s.authorize(ctx, uid, companyID); err != nil {
		return dto.MetricsResponse{}, err
	}
	pt, err := parseOptionalPeriodType(periodType)
	if err != nil {
		return dto.MetricsResponse{}, err
	}
	values, err := s.store.List(ctx, companyID, pt)
	if err != nil {
		return dto.MetricsResponse{}, err
	}
	resp := dto.MetricsResponse{Metrics: make([]models.MetricValue, len(values))}
	for i, v := range values {
		resp.Metrics[i] = *v
	}
	return resp, nil
}

// CrossTab returns the dense company grid, from cache when fresh.
func (s *metricService) CrossTab(ctx context.Context, uid, companyID, periodType string) (*metrics.CrossTab, error) {
	if err := s.authorize(ctx, uid, companyID); err != nil {
		return nil, err
	}
	pt, err := parseOptionalPeriodType(periodType)
	if err != nil {
		return nil, err
	}
	return s.crossTab(ctx, companyID, pt)
}

// Table is the windowed table view: the visible slice of the period axis and
// one row per metric with its rolling total over exactly that window, rows in
// the caller's display order. A negative start means the newest window.
func (s *metricService) Table(ctx context.Context, uid, companyID, periodType string, window, start int) (dto.MetricsTableResponse, error) {
	if err := s.authorize(ctx, uid, companyID); err != nil {
		return dto.MetricsTableResponse{}, err
	}
	pt, err := parseOptionalPeriodType(periodType)
	if err != nil {
		return dto.MetricsTableResponse{}, err
	}
	ct, err := s.crossTab(ctx, companyID, pt)
	if err != nil {
		return dto.MetricsTableResponse{}, err
	}

	if window <= 0 {
		window = s.pageSize
	}
	pager := metrics.NewPager(window)
	pager.SetPeriods(ct.Periods)
	if start >= 0 {
		pager.SetStart(start)
	}
	lo, hi := pager.Bounds()

	display := s.session(ctx, uid, companyID).SetMetrics(ct.MetricNames())
	rows := make([]dto.MetricsTableRow, 0, len(ct.Rows))
	for _, name := range display {
		row, ok := ct.Row(name)
		if !ok {
			continue
		}
		total := metrics.Rolling(row.ValuesIn(lo, hi), row.Aggregation)
		rows = append(rows, dto.MetricsTableRow{
			MetricName:      row.MetricName,
			AggregationType: string(row.Aggregation),
			TotalSymbol:     row.Aggregation.Symbol(),
			TotalLabel:      row.Aggregation.Label(),
			Cells:           row.Cells[lo:hi],
			Total:           total,
			TotalFormatted:  metrics.Format(total, row.MetricName),
		})
	}
	return dto.MetricsTableResponse{
		Periods:      pager.Visible(),
		Start:        pager.Start(),
		TotalPeriods: len(ct.Periods),
		PageSize:     window,
		Rows:         rows,
	}, nil
}

// SaveOrder applies a completed drag: the session order updates immediately
// and the preference write happens debounced, each new drag cancelling the
// previous pending one.
func (s *metricService) SaveOrder(ctx context.Context, uid, companyID string, req dto.ReorderMetricsRequest) error {
	if err := s.authorize(ctx, uid, companyID); err != nil {
		return err
	}
	if len(req.Order) == 0 {
		return errs.NewValidationError("order must name at least one metric")
	}
	s.session(ctx, uid, companyID).CompleteDrag(req.Order)
	return nil
}

// History returns the audit trail behind one metric, newest first. A metric
// that was never submitted has an empty trail, not an error.
func (s *metricService) History(ctx context.Context, uid, companyID, metricName string) (dto.MetricHistoryResponse, error) {
	if err := s.authorize(ctx, uid, companyID); err != nil {
		return dto.MetricHistoryResponse{}, err
	}
	entries, err := s.store.History(ctx, companyID, metricName)
	if err != nil {
		return dto.MetricHistoryResponse{}, err
	}
	resp := dto.MetricHistoryResponse{MetricName: metricName, History: make([]models.MetricAudit, len(entries))}
	for i, e := range entries {
		resp.History[i] = *e
	}
	return resp, nil
}

// Close stops every order session, cancelling pending debounced writes.
func (s *metricService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.Close()
	}
	s.sessions = make(map[string]*metrics.OrderState)
}

// --- Cross-tab assembly ---

func (s *metricService) crossTab(ctx context.Context, companyID string, pt metrics.PeriodType) (*metrics.CrossTab, error) {
	variant := string(pt)
	if ct, ok := s.cache.Get(companyID, variant); ok {
		return ct, nil
	}
	values, err := s.store.List(ctx, companyID, pt)
	if err != nil {
		return nil, err
	}
	records := make([]metrics.Record, len(values))
	for i, v := range values {
		records[i] = v.Record()
	}
	ct := metrics.BuildCrossTab(records, s.classifier)
	s.cache.Set(companyID, variant, ct)
	return ct, nil
}

func (s *metricService) write(ctx context.Context, m *models.MetricValue) error {
	if err := s.store.Upsert(ctx, m); err != nil {
		return err
	}
	audit := &models.MetricAudit{
		CompanyID:    m.CompanyID,
		MetricName:   m.MetricName,
		PeriodType:   m.PeriodType,
		PeriodStart:  m.PeriodStart,
		Value:        m.Value,
		Source:       m.Source,
		AIConfidence: m.AIConfidence,
		ChangeReason: m.ChangeReason,
		SubmittedBy:  m.SubmittedBy,
		RecordedAt:   m.UpdatedAt,
	}
	if err := s.store.AppendHistory(ctx, audit); err != nil {
		// The value is already stored; a missing audit entry is not worth
		// failing the submission over.
		logger.FromContext(ctx).Error("failed to append metric history",
			"company_id", m.CompanyID, "metric", m.MetricName, "error", err)
	}
	s.cache.Invalidate(m.CompanyID)
	return nil
}

// --- Order sessions ---

// session returns the live order state for one user and company, loading the
// saved order on first touch.
func (s *metricService) session(ctx context.Context, uid, companyID string) *metrics.OrderState {
	key := uid + "|" + companyID
	s.mu.Lock()
	sess, ok := s.sessions[key]
	if !ok {
		sess = metrics.NewOrderState(
			prefOrderStore{prefs: s.prefs, uid: uid},
			"metric_order."+companyID,
			s.debounce,
		)
		s.sessions[key] = sess
	}
	s.mu.Unlock()
	if !sess.Loaded() {
		sess.Load(ctx)
	}
	return sess
}

// prefOrderStore adapts the preference store to the order machine, binding
// the user so the key stays the bare "metric_order.<contextId>" form.
type prefOrderStore struct {
	prefs orderPreferences
	uid   string
}

func (s prefOrderStore) Get(ctx context.Context, key string) ([]string, error) {
	p, err := s.prefs.Get(ctx, s.uid, key)
	if err != nil || p == nil {
		return nil, err
	}
	var order []string
	if err := json.Unmarshal(p.Value, &order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s prefOrderStore) Put(ctx context.Context, key string, order []string) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.prefs.Put(ctx, &models.Preference{UserID: s.uid, Key: key, Value: raw})
}

// --- Validation ---

func buildMetricValue(companyID, uid string, req dto.SubmitMetricRequest) (*models.MetricValue, error) {
	name := strings.TrimSpace(req.MetricName)
	if name == "" {
		return nil, errs.NewValidationError("metricName is required")
	}
	pt, ok := metrics.ParsePeriodType(req.PeriodType)
	if !ok {
		return nil, errs.NewValidationError("periodType must be one of: monthly, quarterly, yearly")
	}
	startT := metrics.PeriodKey(req.PeriodStart).Time()
	if startT.IsZero() {
		return nil, errs.NewValidationError("periodStart must be a date")
	}

	source := metrics.SourceManual
	if req.Source != "" {
		source = metrics.Source(req.Source)
		if !source.Valid() {
			return nil, errs.NewValidationError("source must be one of: manual, ai_extracted, override")
		}
	}
	reason := strings.TrimSpace(req.ChangeReason)
	if source == metrics.SourceOverride && reason == "" {
		return nil, errs.NewValidationError("changeReason is required for override submissions")
	}

	var agg metrics.AggregationType
	if req.Aggregation != "" {
		agg, ok = metrics.ParseAggregationType(req.Aggregation)
		if !ok {
			return nil, errs.NewValidationError(`aggregationType must be "sum" or "latest"`)
		}
	}

	// Periods snap to their calendar bounds so the same month submitted as
	// "2025-01-01" and "2025-01-15" lands in one cell.
	return &models.MetricValue{
		CompanyID:    companyID,
		MetricName:   name,
		PeriodType:   pt,
		PeriodStart:  metrics.PeriodKeyOf(metrics.PeriodStart(pt, startT)),
		PeriodEnd:    metrics.PeriodKeyOf(metrics.PeriodEnd(pt, startT)),
		Value:        req.Value,
		Source:       source,
		Aggregation:  agg,
		SubmittedBy:  uid,
		ChangeReason: reason,
	}, nil
}

func parseOptionalPeriodType(s string) (metrics.PeriodType, error) {
	if s == "" {
		return "", nil
	}
	pt, ok := metrics.ParsePeriodType(s)
	if !ok {
		return "", errs.NewValidationError("periodType must be one of: monthly, quarterly, yearly")
	}
	return pt, nil
}

func (s *metricService) authorize(ctx context.Context, uid, companyID string) error {
	return authorizeCompany(ctx, s.access, uid, companyID)
}

// authorizeCompany hides companies outside the caller's portfolio behind the
// same not-found the company endpoints return.
func authorizeCompany(ctx context.Context, access accessChecker, uid, companyID string) error {
	ok, err := access.HasAccess(ctx, uid, companyID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NewNotFoundError("company not found")
	}
	return nil
}
