package handlers

import (
	"log/slog"

	"github.com/ridgelinevc/portfolio-backend/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	CompanySvc      companyService
	MetricSvc       metricService
	ExtractionSvc   extractionService
	DashboardSvc    dashboardService
	ReportSvc       reportService
	ScheduleSvc     scheduleService
	PreferenceSvc   preferenceService
	ChartSvc        chartService
}
