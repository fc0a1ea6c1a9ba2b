package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/thauanfonseca/HDA/internal/core"
)

func TestAddRows(t *testing.T) {
	m := New()
	m.AddRows(core.Summary{ValidCount: 3, PrescribedCount: 2})
	m.AddRows(core.Summary{ValidCount: 1})

	if got := testutil.ToFloat64(m.rowsTotal.WithLabelValues("valid")); got != 4 {
		t.Errorf("rows_total{valid} = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.rowsTotal.WithLabelValues("prescribed")); got != 2 {
		t.Errorf("rows_total{prescribed} = %v, want 2", got)
	}
}

func TestObserveJob(t *testing.T) {
	m := New()
	m.ObserveJob("process", "ok", 120*time.Millisecond)
	m.ObserveJob("process", "ok", 80*time.Millisecond)
	m.ObserveJob("export", "", time.Second)

	if got := testutil.ToFloat64(m.jobsTotal.WithLabelValues("process", "ok")); got != 2 {
		t.Errorf("jobs_total{process,ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.jobsTotal.WithLabelValues("export", "unknown")); got != 1 {
		t.Errorf("jobs_total{export,unknown} = %v, want 1", got)
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/metrics", m.Handler().ServeHTTP)

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}

	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("GET", "/items/{id}", "418")); got != 3 {
		t.Errorf("requests_total{/items/{id},418} = %v, want 3", got)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "hda_http_requests_total") {
		t.Error("metrics output missing hda_http_requests_total")
	}
}
