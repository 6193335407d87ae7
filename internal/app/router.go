package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"schemefinder/internal/catalog"
	"schemefinder/internal/eligibility/handler"
	"schemefinder/internal/platform/metrics"
	"schemefinder/internal/platform/middleware"
	"schemefinder/pkg/platform/httputil"
	"schemefinder/pkg/platform/middleware/metadata"
	"schemefinder/pkg/platform/middleware/requesttime"
)

// HealthChecker reports the state of an optional dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// RouterDeps are the collaborators mounted on the HTTP router.
type RouterDeps struct {
	Service        handler.Service
	Catalog        *catalog.Catalog
	Logger         *zap.Logger
	Gatherer       prometheus.Gatherer
	HTTPMetrics    *metrics.HTTP
	Redis          HealthChecker
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// NewRouter assembles middleware and routes.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Logger(d.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         600,
	}))
	if d.HTTPMetrics != nil {
		r.Use(d.HTTPMetrics.Middleware)
	}

	r.Get("/healthz", healthz(d))
	if d.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(d.Gatherer))
	}

	r.Group(func(r chi.Router) {
		if d.RequestTimeout > 0 {
			r.Use(chimw.Timeout(d.RequestTimeout))
		}
		handler.New(d.Service, d.Catalog, d.Logger).Register(r)
	})
	return r
}

type healthResponse struct {
	Status         string `json:"status"`
	CatalogVersion string `json:"catalog_version"`
	Schemes        int    `json:"schemes"`
	Redis          string `json:"redis,omitempty"`
}

// healthz always answers 200 while the catalog is loaded; a failing cache
// only marks the instance degraded.
func healthz(d RouterDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:         "ok",
			CatalogVersion: d.Catalog.Version(),
			Schemes:        d.Catalog.Len(),
		}
		if d.Redis != nil {
			ctx, cancel := context.WithTimeout(r.Context(), time.Second)
			defer cancel()
			resp.Redis = "ok"
			if err := d.Redis.Health(ctx); err != nil {
				resp.Status = "degraded"
				resp.Redis = "unavailable"
			}
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}
