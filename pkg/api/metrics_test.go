package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/udflash/pkg/userdata"
)

func TestMetrics_ObserveOperation(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveOperation("write_step", nil, time.Millisecond)
	m.ObserveOperation("write_step", userdata.ErrAlreadyWritten, time.Millisecond)
	m.ObserveOperation("write_step", userdata.ErrAlreadyWritten, time.Millisecond)
	m.ObserveOperation("erase", errors.Join(userdata.ErrEraseFailed, errors.New("timeout")), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("write_step", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("write_step", "already")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("erase", "erase failed")))
}

func TestMetrics_RecordState(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordState(userdata.StateSealed)
	assert.Equal(t, float64(userdata.StateSealed), testutil.ToFloat64(m.recordState))
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(prometheus.NewRegistry())
	})
}

func TestMetrics_InstrumentHandler(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	h := m.InstrumentHandler("GET", "/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/test", "418")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpRequestsInFlight.WithLabelValues("GET", "/test")))
}

func TestMetrics_Endpoint(t *testing.T) {
	server, _ := setupTestServer(t)
	h := server.Router()

	w, _ := doRequest(t, h, "GET", "/api/v1/record", "")
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `udflash_operations_total{operation="read",result="crc failed"} 1`)
	assert.Contains(t, body, "udflash_http_requests_total")
	assert.Contains(t, body, "udflash_auth_requests_total")
}
