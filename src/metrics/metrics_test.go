package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndHandler(t *testing.T) {
	before := testutil.ToFloat64(OracleRequests.WithLabelValues(ResultOK))
	OracleRequests.WithLabelValues(ResultOK).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(OracleRequests.WithLabelValues(ResultOK)))

	StaleResults.Inc()
	Loads.WithLabelValues(ResultOK).Inc()
	OracleDuration.Observe(0.25)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "chessreview_oracle_requests_total")
	assert.Contains(t, body, "chessreview_stale_results_total")
	assert.Contains(t, body, "chessreview_oracle_duration_seconds_bucket")
	assert.Contains(t, body, "chessreview_loads_total")
}
