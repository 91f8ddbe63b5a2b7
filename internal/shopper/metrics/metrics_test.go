package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncStaged("insert", "companies")
	m.IncStaged("insert", "companies")
	m.IncValidationFailure("products")
	m.IncHTTPRequest("GET", "/v1/companies", 200)
	m.IncEventPublished("company.created", nil)
	m.IncEventPublished("company.created", errors.New("broker down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StagedOperations.WithLabelValues("insert", "companies")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("products")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/v1/companies", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("company.created", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("company.created", "error")))
}

func TestMetrics_ObserveSave(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveSave(OutcomeCommitted, time.Now())
	assert.Equal(t, 1, testutil.CollectAndCount(m.SaveDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSave(OutcomeFailed, time.Now())
		m.IncStaged("delete", "products")
		m.IncValidationFailure("companies")
		m.IncHTTPRequest("POST", "/v1/products", 500)
		m.IncEventPublished("product.deleted", nil)
	})
}
