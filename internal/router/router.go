package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ridgelinevc/portfolio-backend/internal/handlers"
	"github.com/ridgelinevc/portfolio-backend/internal/middleware"
)

func NewRouter(deps *handlers.Deps, auth *middleware.Middleware, corsOrigins []string) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	ch := handlers.NewCompanyHandlers(deps)
	mh := handlers.NewMetricHandlers(deps)
	dh := handlers.NewDashboardHandlers(deps)
	rh := handlers.NewReportHandlers(deps)
	sh := handlers.NewScheduleHandlers(deps)
	ph := handlers.NewPreferenceHandlers(deps)
	gh := handlers.NewChartHandlers(deps)

	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.BearerAuth)

		r.Route("/companies", func(r chi.Router) {
			r.Get("/", ch.ListCompanies)
			r.Post("/", ch.CreateCompany)
			r.Route("/{companyId}", func(r chi.Router) {
				r.Get("/", ch.GetCompany)
				r.Mount("/metrics", mh.MetricRoutes())
				r.Mount("/schedules", sh.ScheduleRoutes())
				r.Mount("/charts", gh.ChartRoutes())
			})
		})

		r.Mount("/dashboard", dh.DashboardRoutes())
		r.Mount("/reports", rh.ReportRoutes())
		r.Mount("/preferences", ph.PreferenceRoutes())
		r.Get("/schedules/due", sh.GetDue)
	})

	return r
}
