package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"schemefinder/internal/catalog"
	"schemefinder/internal/platform/config"
)

// =============================================================================
// App Wiring Test Suite
// =============================================================================

type AppSuite struct {
	suite.Suite
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(AppSuite))
}

func (s *AppSuite) config() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Addr:           "127.0.0.1:0",
			RequestTimeout: 5 * time.Second,
			CORSOrigins:    []string{"*"},
		},
		Catalog: config.CatalogConfig{Source: config.SourceFile},
		Redis:   config.RedisConfig{TTL: time.Minute},
		Events:  config.EventsConfig{Sink: config.SinkNone},
	}
}

func (s *AppSuite) build(cfg *config.Config) *App {
	a, err := Build(context.Background(), cfg, zaptest.NewLogger(s.T()))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func (s *AppSuite) do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// Build Tests
// =============================================================================

func (s *AppSuite) TestBuildWithEmbeddedCatalog() {
	a := s.build(s.config())
	s.Equal(11, a.Catalog.Len())
	s.NotNil(a.Service)
}

func (s *AppSuite) TestBuildFromCatalogFile() {
	doc := `{"schemes":[{"id":1,"name":{"english":"Only"},"description":{"english":"x"},"eligibility":{}}],
		"locations":{"states":[]},"translations":{}}`
	path := filepath.Join(s.T().TempDir(), "catalog.json")
	s.Require().NoError(os.WriteFile(path, []byte(doc), 0o600))

	cfg := s.config()
	cfg.Catalog.Path = path
	a := s.build(cfg)
	s.Equal(1, a.Catalog.Len())
}

func (s *AppSuite) TestBuildFailsOnBadCatalog() {
	path := filepath.Join(s.T().TempDir(), "catalog.json")
	s.Require().NoError(os.WriteFile(path, []byte(`{"schemes":[{"id":0}]}`), 0o600))

	cfg := s.config()
	cfg.Catalog.Path = path
	_, err := Build(context.Background(), cfg, zaptest.NewLogger(s.T()))
	s.Error(err)
	s.Contains(err.Error(), "load file catalog")
}

func (s *AppSuite) TestUnreachableRedisDisablesCache() {
	server := miniredis.RunT(s.T())
	addr := server.Addr()
	server.Close()

	cfg := s.config()
	cfg.Redis.URL = "redis://" + addr
	cfg.Redis.DialTimeout = 100 * time.Millisecond
	a := s.build(cfg)

	rec := s.do(a.Router, http.MethodGet, "/healthz", "")
	s.Equal(http.StatusOK, rec.Code)
	s.NotContains(rec.Body.String(), "redis")
}

// =============================================================================
// Router Tests
// =============================================================================

func (s *AppSuite) TestCheckEligibilityThroughRouter() {
	a := s.build(s.config())

	req := httptest.NewRequest(http.MethodPost, "/api/check-eligibility",
		strings.NewReader(`{"age":25,"income":80000,"occupation":"farmer","gender":"male","caste":"General","state":"Bihar"}`))
	req.Header.Set("X-Request-ID", "req-app-1")
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("req-app-1", rec.Header().Get("X-Request-ID"))
	s.Equal("*", rec.Header().Get("Access-Control-Allow-Origin"))

	var resp struct {
		EligibleSchemes []catalog.Scheme `json:"eligibleSchemes"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Len(resp.EligibleSchemes, 4)
}

func (s *AppSuite) TestHealthzAndMetrics() {
	server := miniredis.RunT(s.T())
	cfg := s.config()
	cfg.Redis.URL = "redis://" + server.Addr()
	a := s.build(cfg)

	rec := s.do(a.Router, http.MethodGet, "/healthz", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var health healthResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&health))
	s.Equal("ok", health.Status)
	s.Equal("ok", health.Redis)
	s.Equal(a.Catalog.Version(), health.CatalogVersion)

	for range 2 {
		s.Equal(http.StatusOK, s.do(a.Router, http.MethodPost, "/api/check-eligibility", `{"gender":"female","income":1000}`).Code)
	}

	rec = s.do(a.Router, http.MethodGet, "/metrics", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	s.Contains(body, `schemefinder_eligibility_checks_total{source="cache"} 1`)
	s.Contains(body, `schemefinder_eligibility_checks_total{source="evaluated"} 1`)
	s.Contains(body, "schemefinder_http_requests_total")

	server.Close()
	rec = s.do(a.Router, http.MethodGet, "/healthz", "")
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&health))
	s.Equal("degraded", health.Status)
}

// =============================================================================
// Run Tests
// =============================================================================

func (s *AppSuite) TestRunDeliversEventsAndShutsDown() {
	cfg := s.config()
	cfg.Events = config.EventsConfig{Sink: config.SinkLog, Buffer: 8}
	a := s.build(cfg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, ln) }()

	resp, err := http.Post("http://"+ln.Addr().String()+"/api/check-eligibility", "application/json",
		strings.NewReader(`{"occupation":"student","income":"100000"}`))
	s.Require().NoError(err)
	_ = resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("app did not shut down")
	}
	s.Equal(0.0, promCounter(s, a, "schemefinder_events_dropped_total"))
}

// promCounter pulls a single counter value out of the app registry.
func promCounter(s *AppSuite, a *App, name string) float64 {
	families, err := a.Registry.Gather()
	s.Require().NoError(err)
	for _, f := range families {
		if f.GetName() == name && len(f.GetMetric()) == 1 {
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	s.FailNow("metric not found", name)
	return 0
}
