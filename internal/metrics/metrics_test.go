package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(bookingTransitions.WithLabelValues("approve"))
	IncBookingTransition("approve")
	assert.Equal(t, before+1, testutil.ToFloat64(bookingTransitions.WithLabelValues("approve")))

	before = testutil.ToFloat64(acquireConflicts)
	IncAcquireConflict()
	assert.Equal(t, before+1, testutil.ToFloat64(acquireConflicts))

	before = testutil.ToFloat64(httpRequests.WithLabelValues("GET", "404"))
	ObserveHTTP(http.MethodGet, http.StatusNotFound, 3*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "404")))
}

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}
