package eligibility

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"schemefinder/internal/catalog"
	"schemefinder/internal/eligibility/metrics"
	"schemefinder/internal/events"
	dErrors "schemefinder/pkg/domain-errors"
	"schemefinder/pkg/platform/sentinel"
	"schemefinder/pkg/requestcontext"
)

const (
	// DefaultCacheTTL applies when WithCache is given a non-positive TTL.
	DefaultCacheTTL = 10 * time.Minute

	cacheKeyPrefix = "schemefinder:eligibility:"
)

// Service answers eligibility questions against a loaded catalog. The
// catalog is read-only, so a Service is safe for concurrent use.
type Service struct {
	catalog   *catalog.Catalog
	cache     Cache
	cacheTTL  time.Duration
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	tracer    trace.Tracer
}

type Option func(*Service)

// WithCache enables result caching keyed by catalog version and profile.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(s *Service) {
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}
		s.cache = cache
		s.cacheTTL = ttl
	}
}

func WithPublisher(publisher Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(cat *catalog.Catalog, opts ...Option) (*Service, error) {
	if cat == nil {
		return nil, errors.New("catalog is required")
	}

	svc := &Service{
		catalog: cat,
		logger:  zap.NewNop(),
		tracer:  otel.Tracer("schemefinder/eligibility"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc, nil
}

// Result is a check with the reasons every other scheme was excluded.
type Result struct {
	Eligible   []catalog.Scheme
	Rejections map[int][]Criterion
}

// GetAllSchemes returns the full catalog in order.
func (s *Service) GetAllSchemes(_ context.Context) []catalog.Scheme {
	return s.catalog.All()
}

// CheckEligibility returns the schemes raw qualifies for, in catalog order.
// Malformed profile values never cause an error; the only failure is a
// context that is already done. Cache and publish failures are logged.
func (s *Service) CheckEligibility(ctx context.Context, raw RawProfile) ([]catalog.Scheme, error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "eligibility check cancelled")
	}

	ctx, span := s.tracer.Start(ctx, "eligibility.CheckEligibility")
	defer span.End()

	profile := ParseProfile(raw)
	key := s.cacheKey(profile)

	matched, hit := s.lookup(ctx, key)
	source := "cache"
	if !hit {
		source = "evaluated"
		outcomes := s.evaluate(ctx, profile)
		matched = eligibleOf(outcomes)
		s.store(ctx, key, matched)
	}

	span.SetAttributes(
		attribute.Int("eligibility.matched", len(matched)),
		attribute.Bool("eligibility.cache_hit", hit),
	)
	s.metrics.IncrementCheck(source, len(matched))
	s.publish(ctx, profile, matched)

	return matched, nil
}

// Explain evaluates raw without the cache and reports which criteria each
// excluded scheme failed.
func (s *Service) Explain(ctx context.Context, raw RawProfile) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "eligibility check cancelled")
	}

	ctx, span := s.tracer.Start(ctx, "eligibility.Explain")
	defer span.End()

	profile := ParseProfile(raw)
	outcomes := s.evaluate(ctx, profile)

	result := &Result{
		Eligible:   eligibleOf(outcomes),
		Rejections: make(map[int][]Criterion),
	}
	for _, o := range outcomes {
		if !o.Assessment.Eligible() {
			result.Rejections[o.Scheme.ID] = o.Assessment.Failed
		}
	}

	span.SetAttributes(attribute.Int("eligibility.matched", len(result.Eligible)))
	s.metrics.IncrementCheck("evaluated", len(result.Eligible))
	s.publish(ctx, profile, result.Eligible)

	return result, nil
}

func (s *Service) evaluate(ctx context.Context, profile Profile) []Outcome {
	start := time.Now()
	outcomes := EvaluateAll(profile, s.catalog.All())
	s.metrics.ObserveEvaluateLatency(time.Since(start))

	for _, o := range outcomes {
		if o.Assessment.Eligible() {
			continue
		}
		for _, c := range o.Assessment.Failed {
			s.metrics.IncrementRejection(string(c))
		}
		if ce := s.logger.Check(zap.DebugLevel, "scheme rejected"); ce != nil {
			ce.Write(
				zap.String("request_id", requestcontext.RequestID(ctx)),
				zap.Int("scheme_id", o.Scheme.ID),
				zap.Stringers("failed", o.Assessment.Failed),
			)
		}
	}
	return outcomes
}

func eligibleOf(outcomes []Outcome) []catalog.Scheme {
	matched := make([]catalog.Scheme, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Assessment.Eligible() {
			matched = append(matched, o.Scheme)
		}
	}
	return matched
}

// lookup returns cached results rehydrated from the catalog. Any cache
// error, or an ID the catalog no longer has, is treated as a miss.
// sentinel.ErrUnavailable means the cache is being skipped and is not logged.
func (s *Service) lookup(ctx context.Context, key string) ([]catalog.Scheme, bool) {
	if s.cache == nil {
		return nil, false
	}

	ids, err := s.cache.Get(ctx, key)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			s.metrics.IncrementCacheLookup("miss")
		case errors.Is(err, sentinel.ErrUnavailable):
			// The cache is switched off for now; its guard already logged why.
			s.metrics.IncrementCacheLookup("skipped")
		default:
			s.metrics.IncrementCacheLookup("error")
			s.logger.Warn("eligibility cache lookup failed",
				zap.String("request_id", requestcontext.RequestID(ctx)),
				zap.Error(err),
			)
		}
		return nil, false
	}

	matched := make([]catalog.Scheme, 0, len(ids))
	for _, id := range ids {
		scheme, ok := s.catalog.ByID(id)
		if !ok {
			s.metrics.IncrementCacheLookup("miss")
			return nil, false
		}
		matched = append(matched, scheme)
	}
	s.metrics.IncrementCacheLookup("hit")
	return matched, true
}

func (s *Service) store(ctx context.Context, key string, matched []catalog.Scheme) {
	if s.cache == nil {
		return
	}
	ids := make([]int, 0, len(matched))
	for _, m := range matched {
		ids = append(ids, m.ID)
	}
	if err := s.cache.Set(ctx, key, ids, s.cacheTTL); err != nil && !errors.Is(err, sentinel.ErrUnavailable) {
		s.logger.Warn("eligibility cache store failed",
			zap.String("request_id", requestcontext.RequestID(ctx)),
			zap.Error(err),
		)
	}
}

func (s *Service) publish(ctx context.Context, profile Profile, matched []catalog.Scheme) {
	if s.publisher == nil {
		return
	}

	event := events.NewCheckEvent(requestcontext.Now(ctx), requestcontext.RequestID(ctx))
	event.CatalogVersion = s.catalog.Version()
	event.MatchedIDs = make([]int, 0, len(matched))
	for _, m := range matched {
		event.MatchedIDs = append(event.MatchedIDs, m.ID)
	}
	event.Profile = events.ProfileSummary{
		AgeKnown:    profile.Age.Valid,
		IncomeKnown: profile.Income.Valid,
		Occupation:  profile.Occupation,
		Caste:       profile.Caste,
		Gender:      profile.Gender,
		State:       profile.State,
		District:    profile.District,
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish check event",
			zap.String("request_id", event.RequestID),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}
}

// cacheKey fingerprints the fields criteria read. District is excluded so
// profiles differing only there share an entry. Fields are JSON-encoded as a
// tuple, so separators inside values cannot shift one field into the next.
func (s *Service) cacheKey(p Profile) string {
	canonical, _ := json.Marshal([6]string{
		p.Age.String(),
		p.Income.String(),
		p.Occupation,
		p.Caste,
		p.Gender,
		p.State,
	})
	sum := blake2b.Sum256(canonical)
	return cacheKeyPrefix + s.catalog.Version() + ":" + hex.EncodeToString(sum[:16])
}
