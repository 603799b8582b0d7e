package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_ObservesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/course/c/{courseId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b", "c"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/course/c/"+id, nil))
		require.Equal(t, http.StatusTeapot, rr.Code)
	}

	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() != "learnify_http_request_duration_seconds" {
			continue
		}
		found = true
		metric := f.GetMetric()[0]
		assert.Equal(t, uint64(3), metric.GetHistogram().GetSampleCount())
		labels := map[string]string{}
		for _, l := range metric.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		assert.Equal(t, "/course/c/{courseId}", labels["route"])
		assert.Equal(t, "418", labels["status"])
	}
	assert.True(t, found)
}

func TestCounters(t *testing.T) {
	m := NewNop()
	m.PurchasesInitiated.WithLabelValues("stripe").Inc()
	m.PurchasesInitiated.WithLabelValues("stripe").Inc()
	m.PurchasesCompleted.WithLabelValues("razorpay").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.PurchasesInitiated.WithLabelValues("stripe")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PurchasesCompleted.WithLabelValues("razorpay")))
}

func TestNew_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
