package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ridgelinevc/portfolio-backend/internal/bootstrap"
	"github.com/ridgelinevc/portfolio-backend/internal/cache"
	"github.com/ridgelinevc/portfolio-backend/internal/config"
	"github.com/ridgelinevc/portfolio-backend/internal/handlers"
	"github.com/ridgelinevc/portfolio-backend/internal/middleware"
	"github.com/ridgelinevc/portfolio-backend/internal/response"
	"github.com/ridgelinevc/portfolio-backend/internal/router"
	"github.com/ridgelinevc/portfolio-backend/internal/services"
	"github.com/ridgelinevc/portfolio-backend/internal/store"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config load failed:", err)
		os.Exit(1)
	}
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = store.Migrate(ctx, bs.DB)
	exitOnError("migrate failed", err, bs.Log)

	// stores
	cstore := store.NewCompanyStore(bs.DB)
	mstore := store.NewMetricStore(bs.DB)
	pstore := store.NewPreferenceStore(bs.DB)
	rstore := store.NewReportStore(bs.DB)
	sstore := store.NewScheduleStore(bs.DB)
	wstore := store.NewWidgetStore(bs.DB)

	// services
	ctCache := cache.NewCrossTabCache(time.Duration(cfg.Metrics.CacheTTLSecs) * time.Second)
	coserv := services.NewCompanyService(cstore)
	mserv := services.NewMetricService(mstore, coserv, pstore, ctCache,
		cfg.Metrics.PageSize, time.Duration(cfg.Metrics.OrderDebounceMS)*time.Millisecond)
	defer mserv.Close()
	exserv := services.NewExtractionService(bs.Vertex, mstore, coserv, ctCache, cfg.Vertex.MinConfidence)
	dserv := services.NewDashboardService(wstore, mserv)
	rserv := services.NewReportService(rstore, mserv, coserv)
	sserv := services.NewScheduleService(sstore, mstore, coserv)
	pserv := services.NewPreferenceService(pstore)
	chserv := services.NewChartService(mserv, coserv, time.Duration(cfg.Charts.RenderTTLSecs)*time.Second)

	// response handler
	rh := response.New()

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.CompanySvc = coserv
	deps.MetricSvc = mserv
	deps.ExtractionSvc = exserv
	deps.DashboardSvc = dserv
	deps.ReportSvc = rserv
	deps.ScheduleSvc = sserv
	deps.PreferenceSvc = pserv
	deps.ChartSvc = chserv

	// router
	auth := middleware.NewMiddleware([]byte(cfg.Auth.JWTSecret))
	r := router.NewRouter(deps, auth, cfg.Server.CORSOrigins)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		bs.Log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			bs.Log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	bs.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		bs.Log.Error("shutdown failed", "error", err)
	}
}
