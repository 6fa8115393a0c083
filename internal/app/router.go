package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/fees"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/masterdata/academicyears"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/masterdata/feecategories"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/masterdata/grades"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/observability"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger               *slog.Logger
	Config               *Config
	FeesHandler          *fees.Handler
	AcademicYearsHandler *academicyears.Handler
	GradesHandler        *grades.Handler
	FeeCategoriesHandler *feecategories.Handler
	JobsHandler          *jobs.Handler
	Metrics              *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(TenantMiddleware(params.Logger))

		if params.FeesHandler != nil {
			params.FeesHandler.MountRoutes(r)
		}
		if params.AcademicYearsHandler != nil {
			params.AcademicYearsHandler.MountRoutes(r)
		}
		if params.GradesHandler != nil {
			params.GradesHandler.MountRoutes(r)
		}
		if params.FeeCategoriesHandler != nil {
			params.FeeCategoriesHandler.MountRoutes(r)
		}
	})

	return r
}
