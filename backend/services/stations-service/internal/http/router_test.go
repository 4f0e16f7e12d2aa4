package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"evcharge/backend/libs/httpmw"
	"evcharge/backend/libs/metrics"
	"evcharge/backend/services/stations-service/internal/catalogsync"
	"evcharge/backend/services/stations-service/internal/http/handlers"
	"evcharge/backend/services/stations-service/internal/http/middleware"
	"evcharge/backend/services/stations-service/internal/models"
	"evcharge/backend/services/stations-service/internal/service"
)

type routeQueries struct {
	called string
}

func (q *routeQueries) Markers(context.Context) ([]models.StationMarker, error) {
	q.called = "markers"
	return nil, nil
}

func (q *routeQueries) Nearby(context.Context, service.NearbyInput) ([]models.StationMarker, error) {
	q.called = "nearby"
	return nil, nil
}

func (q *routeQueries) Detail(_ context.Context, id string) (*models.StationDetail, error) {
	q.called = "detail:" + id
	return &models.StationDetail{Station: models.Station{ID: id}}, nil
}

type countingRefresher struct {
	calls int
}

func (c *countingRefresher) Refresh(context.Context, string) (catalogsync.Result, error) {
	c.calls++
	return catalogsync.Result{}, nil
}

func newTestRouter(q *routeQueries, ref *countingRefresher, m *metrics.Metrics) http.Handler {
	logger := zap.NewNop()
	return NewRouter(RouterDeps{
		Stations:       handlers.NewStationsHandlers(q, logger),
		Refresh:        handlers.NewRefreshHandler(ref, logger),
		Health:         handlers.NewHealthHandler(),
		Metrics:        m.Handler(),
		AdminOnly:      middleware.AdminToken("s3cret", logger),
		RequestLogging: httpmw.RequestLogger(logger, m),
	})
}

func TestRouterDispatch(t *testing.T) {
	q := &routeQueries{}
	router := newTestRouter(q, &countingRefresher{}, metrics.New("stations-test"))

	cases := map[string]string{
		"/stations":                       "markers",
		"/stations/nearby?lat=37&lng=127": "nearby",
		"/stations/ME0001":                "detail:ME0001",
	}
	for target, want := range cases {
		q.called = ""
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusOK || q.called != want {
			t.Errorf("%s: status=%d called=%q want %q", target, rec.Code, q.called, want)
		}
	}
}

func TestRouterMethodGuard(t *testing.T) {
	router := newTestRouter(&routeQueries{}, &countingRefresher{}, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stations", nil))
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != http.MethodGet {
		t.Fatalf("status = %d allow = %q", rec.Code, rec.Header().Get("Allow"))
	}
}

func TestRouterAdminToken(t *testing.T) {
	ref := &countingRefresher{}
	router := newTestRouter(&routeQueries{}, ref, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/stations/refresh", nil))
	if rec.Code != http.StatusUnauthorized || ref.calls != 0 {
		t.Fatalf("missing token: status = %d calls = %d", rec.Code, ref.calls)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/stations/refresh?zcode=11", nil)
	req.Header.Set(middleware.AdminTokenHeader, "s3cret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || ref.calls != 1 {
		t.Fatalf("valid token: status = %d calls = %d", rec.Code, ref.calls)
	}
}

func TestRouterMetricsUseRoutePattern(t *testing.T) {
	m := metrics.New("stations-test")
	router := newTestRouter(&routeQueries{}, &countingRefresher{}, m)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/stations/ME0001", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `route="/stations/{id}"`) {
		t.Fatalf("expected pattern label in metrics output")
	}
}
