package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"schemefinder/internal/catalog"
	"schemefinder/internal/eligibility"
	"schemefinder/pkg/platform/httputil"
	"schemefinder/pkg/requestcontext"
)

// Service defines the eligibility operations the HTTP layer needs.
type Service interface {
	GetAllSchemes(ctx context.Context) []catalog.Scheme
	CheckEligibility(ctx context.Context, raw eligibility.RawProfile) ([]catalog.Scheme, error)
	Explain(ctx context.Context, raw eligibility.RawProfile) (*eligibility.Result, error)
}

// Catalog exposes the passthrough tables served to the UI.
type Catalog interface {
	Locations() catalog.Locations
	Translations() catalog.Translations
}

// Handler wires eligibility endpoints to the eligibility service.
type Handler struct {
	service Service
	catalog Catalog
	logger  *zap.Logger
}

// New constructs an eligibility handler with its dependencies.
func New(service Service, catalog Catalog, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service: service,
		catalog: catalog,
		logger:  logger,
	}
}

// Register mounts eligibility endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/schemes", h.HandleSchemes)
	r.Post("/api/check-eligibility", h.HandleCheckEligibility)
	r.Get("/api/locations", h.HandleLocations)
	r.Get("/api/translations", h.HandleTranslations)
}

// HandleSchemes handles GET /api/schemes.
func (h *Handler) HandleSchemes(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, &SchemesResponse{
		Schemes:      h.service.GetAllSchemes(r.Context()),
		Locations:    h.catalog.Locations(),
		Translations: h.catalog.Translations(),
	})
}

// HandleCheckEligibility handles POST /api/check-eligibility requests.
func (h *Handler) HandleCheckEligibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[CheckEligibilityRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}

	explain, _ := strconv.ParseBool(r.URL.Query().Get("explain"))

	var resp *CheckEligibilityResponse
	if explain {
		result, err := h.service.Explain(ctx, req.Profile)
		if err != nil {
			h.fail(w, requestID, err)
			return
		}
		resp = FromResult(result)
	} else {
		matched, err := h.service.CheckEligibility(ctx, req.Profile)
		if err != nil {
			h.fail(w, requestID, err)
			return
		}
		resp = &CheckEligibilityResponse{EligibleSchemes: matched}
	}

	h.logger.Info("eligibility checked",
		zap.String("request_id", requestID),
		zap.Int("matched", len(resp.EligibleSchemes)),
		zap.Bool("explain", explain),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleLocations handles GET /api/locations.
func (h *Handler) HandleLocations(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.catalog.Locations())
}

// HandleTranslations handles GET /api/translations.
func (h *Handler) HandleTranslations(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.catalog.Translations())
}

func (h *Handler) fail(w http.ResponseWriter, requestID string, err error) {
	h.logger.Error("eligibility check failed",
		zap.String("request_id", requestID),
		zap.Error(err),
	)
	httputil.WriteError(w, err)
}
