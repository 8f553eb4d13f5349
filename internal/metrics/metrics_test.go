package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AdguardTeam/dnsreport/internal/aghtest"
	"github.com/AdguardTeam/dnsreport/internal/eventstore"
	"github.com/AdguardTeam/dnsreport/internal/metrics"
	"github.com/AdguardTeam/dnsreport/internal/privacy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterStore(t *testing.T) {
	t.Parallel()

	store, clock := aghtest.NewStore(t, privacy.Fixed(privacy.LevelShowAll))
	aghtest.AddQueries(store, clock, 3, "example.org", "192.0.2.1", eventstore.StatusForwarded)
	aghtest.AddQueries(store, clock, 2, "ads.example", "192.0.2.1", eventstore.StatusGravity)
	store.SetGravitySize(42)

	reg := prometheus.NewRegistry()
	require.NoError(t, metrics.RegisterStore(reg, store))

	const want = `
# HELP dnsreport_store_blocked_total The number of blocked queries.
# TYPE dnsreport_store_blocked_total counter
dnsreport_store_blocked_total 2
# HELP dnsreport_store_gravity_size The number of domains on the block lists.
# TYPE dnsreport_store_gravity_size gauge
dnsreport_store_gravity_size 42
# HELP dnsreport_store_queries_total The total number of recorded queries.
# TYPE dnsreport_store_queries_total counter
dnsreport_store_queries_total 5
`

	err := testutil.GatherAndCompare(
		reg,
		strings.NewReader(want),
		"dnsreport_store_blocked_total",
		"dnsreport_store_gravity_size",
		"dnsreport_store_queries_total",
	)
	assert.NoError(t, err)

	err = metrics.RegisterStore(reg, store)
	assert.Error(t, err)
}

func TestHTTP_Wrap(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := metrics.NewHTTP(reg)
	require.NoError(t, err)

	h := m.Wrap("test", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)

			return
		}

		_, _ = w.Write([]byte("OK"))
	}))

	for _, path := range []string{"/ok", "/ok", "/missing"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	n, err := testutil.GatherAndCount(reg, "dnsreport_http_requests_total")
	require.NoError(t, err)

	assert.Equal(t, 2, n)

	const want = `
# HELP dnsreport_http_requests_total The number of processed API requests.
# TYPE dnsreport_http_requests_total counter
dnsreport_http_requests_total{code="200",route="test"} 2
dnsreport_http_requests_total{code="404",route="test"} 1
`

	err = testutil.GatherAndCompare(reg, strings.NewReader(want), "dnsreport_http_requests_total")
	assert.NoError(t, err)
}

func TestHTTP_Wrap_nil(t *testing.T) {
	t.Parallel()

	var m *metrics.HTTP
	h := m.Wrap("test", http.NotFoundHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := metrics.NewHTTP(reg)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
