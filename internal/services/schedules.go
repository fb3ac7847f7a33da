package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ridgelinevc/portfolio-backend/internal/dto"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
	"github.com/ridgelinevc/portfolio-backend/internal/metrics"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
)

// scheduleStore is the storage interface for reporting schedules.
type scheduleStore interface {
	Create(ctx context.Context, sc *models.Schedule) error
	ListByCompany(ctx context.Context, companyID string) ([]*models.Schedule, error)
	ListForInvestor(ctx context.Context, investorID string) ([]*models.Schedule, error)
}

// scheduleValues reads stored metric values to find the missing ones.
type scheduleValues interface {
	List(ctx context.Context, companyID string, periodType metrics.PeriodType) ([]*models.MetricValue, error)
}

type scheduleService struct {
	store  scheduleStore
	values scheduleValues
	access accessChecker

	now func() time.Time
}

func NewScheduleService(store scheduleStore, values scheduleValues, access accessChecker) *scheduleService {
	return &scheduleService{store: store, values: values, access: access, now: time.Now}
}

// --- Public service methods ---

func (s *scheduleService) Create(ctx context.Context, uid, companyID string, req dto.CreateScheduleRequest) (*models.Schedule, error) {
	if err := authorizeCompany(ctx, s.access, uid, companyID); err != nil {
		return nil, err
	}
	pt, ok := metrics.ParsePeriodType(req.PeriodType)
	if !ok {
		return nil, errs.NewValidationError("periodType must be one of: monthly, quarterly, yearly")
	}
	names := make([]string, 0, len(req.MetricNames))
	for _, n := range req.MetricNames {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return nil, errs.NewValidationError("metricNames must name at least one metric")
	}
	if req.RemindDays < 0 {
		return nil, errs.NewValidationError("remindDays must not be negative")
	}

	sc := &models.Schedule{
		ScheduleID:  uuid.New().String(),
		CompanyID:   companyID,
		MetricNames: names,
		PeriodType:  string(pt),
		RemindDays:  req.RemindDays,
		CreatedBy:   uid,
	}
	if err := s.store.Create(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *scheduleService) List(ctx context.Context, uid, companyID string) ([]*models.Schedule, error) {
	if err := authorizeCompany(ctx, s.access, uid, companyID); err != nil {
		return nil, err
	}
	return s.store.ListByCompany(ctx, companyID)
}

// Due reports, across every company the caller can read, the scheduled
// metrics with no stored value for the most recently closed period. A
// schedule's remindDays delays the period past its close before it counts.
func (s *scheduleService) Due(ctx context.Context, uid string) (dto.DueMetricsResponse, error) {
	schedules, err := s.store.ListForInvestor(ctx, uid)
	if err != nil {
		return dto.DueMetricsResponse{}, err
	}

	now := s.now()
	stored := make(map[string]map[string]bool) // companyID → metric|type|start
	due := make([]dto.DueMetric, 0)

	for _, sc := range schedules {
		pt := metrics.PeriodType(sc.PeriodType)
		if !pt.Valid() {
			continue
		}
		start, end := lastClosedPeriod(pt, now)
		if now.Before(end.AddDate(0, 0, sc.RemindDays)) {
			continue
		}

		have, ok := stored[sc.CompanyID]
		if !ok {
			values, err := s.values.List(ctx, sc.CompanyID, "")
			if err != nil {
				return dto.DueMetricsResponse{}, err
			}
			have = make(map[string]bool, len(values))
			for _, v := range values {
				have[valueKey(v.MetricName, v.PeriodType, v.PeriodStart)] = true
			}
			stored[sc.CompanyID] = have
		}

		startKey := metrics.PeriodKeyOf(start)
		for _, name := range sc.MetricNames {
			if have[valueKey(name, pt, startKey)] {
				continue
			}
			due = append(due, dto.DueMetric{
				CompanyID:   sc.CompanyID,
				MetricName:  name,
				PeriodType:  string(pt),
				PeriodStart: startKey,
				PeriodEnd:   metrics.PeriodKeyOf(end),
			})
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].CompanyID != due[j].CompanyID {
			return due[i].CompanyID < due[j].CompanyID
		}
		return due[i].MetricName < due[j].MetricName
	})
	return dto.DueMetricsResponse{Due: due}, nil
}

// ---- Helpers ----

// lastClosedPeriod returns the bounds of the most recent period that has
// fully elapsed.
func lastClosedPeriod(pt metrics.PeriodType, now time.Time) (start, end time.Time) {
	currentStart := metrics.PeriodStart(pt, now)
	start = metrics.PeriodStart(pt, currentStart.AddDate(0, 0, -1))
	end = metrics.PeriodEnd(pt, start)
	return start, end
}

// valueKey matches schedule names against stored values the way every other
// lookup does: case-insensitively.
func valueKey(metricName string, pt metrics.PeriodType, start metrics.PeriodKey) string {
	return strings.ToLower(metricName) + "|" + string(pt) + "|" + string(start)
}
