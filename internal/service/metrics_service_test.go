package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceRecords(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/groups", http.StatusOK, 15*time.Millisecond)
	m.RecordWrites("attendance", 3)
	m.RecordWrites("attendance", 0)
	m.RecordEditRejection("grade", "EDIT_WINDOW_CLOSED")
	m.RecordLogin("success")

	assert.Equal(t, 3.0, counterValue(t, m, "records_written_total"))
	assert.Equal(t, 1.0, counterValue(t, m, "edit_rejections_total"))
	assert.Equal(t, 1.0, counterValue(t, m, "http_requests_total"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "login_attempts_total"))
}

func counterValue(t *testing.T, m *MetricsService, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	m.RecordWrites("grade", 1)
	m.RecordEditRejection("grade", "FORBIDDEN")
	m.RecordLogin("invalid")
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
