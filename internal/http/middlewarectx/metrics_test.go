package middlewarectx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/student-records/internal/http/middlewarectx"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := middlewarectx.NewMetrics(reg)

	router := chi.NewRouter()
	router.Use(m.Middleware)
	router.Get("/api/students/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/students/"+id, nil))
	}
	m.AuthFailure("token_expired")

	assert.Equal(t, 3.0, counterValue(t, m.RequestsTotal.WithLabelValues(http.MethodGet, "/api/students/{id}", "404")))
	assert.Equal(t, 1.0, counterValue(t, m.AuthFailures.WithLabelValues("token_expired")))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, c.Write(&metric))
	return metric.GetCounter().GetValue()
}
