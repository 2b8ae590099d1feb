package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/rsvps/{rsvpID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/rsvps/{rsvpID}", "418"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rsvps/abc", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/rsvps/{rsvpID}", "418"))
	assert.Equal(t, before+1, after)
}

func TestBusinessCounters(t *testing.T) {
	before := testutil.ToFloat64(capacityRejectionsTotal.WithLabelValues("batch"))
	RecordCapacityRejection("batch")
	assert.Equal(t, before+1, testutil.ToFloat64(capacityRejectionsTotal.WithLabelValues("batch")))

	RecordNotification("NEW_RSVP", "ok")
	assert.Equal(t, float64(1), testutil.ToFloat64(notificationsDispatchedTotal.WithLabelValues("NEW_RSVP", "ok")))
}
