package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivd-portal/inscription-service/internal/domain"
)

func TestMetrics_Records(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/api/inscriptions", "POST", 201, 15*time.Millisecond)
	m.RecordRequest("/api/inscriptions", "POST", 201, 5*time.Millisecond)
	m.RecordError("/api/inscriptions", "POST", "TOO_OLD")
	m.RecordRegistration("REGISTERED")
	m.RecordRegistration(string(domain.TooOld))
	m.RecordValidation()
	m.RecordReconcile(3, map[domain.EligibilityResult]int{domain.TooYoung: 2}, 1)
	m.RecordCacheLookup("hit")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("POST", "/api/inscriptions", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("POST", "/api/inscriptions", "TOO_OLD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.registrations.WithLabelValues("REGISTERED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.registrations.WithLabelValues("TOO_OLD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconcileRuns))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.reconcileFlags.WithLabelValues("flagged", "TOO_YOUNG")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconcileFlags.WithLabelValues("cleared", "ELIGIBLE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordRegistration("REGISTERED")
		m.RecordValidation()
		m.RecordReconcile(1, nil, 0)
		m.RecordCacheLookup("miss")
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordRegistration("REGISTERED")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ivd_inscriptions_registrations_total"))
}

func TestNewMetrics_Independent(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics()
		NewMetrics()
	})
}
