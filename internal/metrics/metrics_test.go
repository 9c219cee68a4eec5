package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rap-project/rap-go/pkg/verifier"
)

func TestObserveVerification(t *testing.T) {
	// Setup
	m := New()

	// Execute
	m.ObserveVerification(verifier.KindNone, time.Millisecond)
	m.ObserveVerification(verifier.KindNone, time.Millisecond)
	m.ObserveVerification(verifier.KindVerificationFailed, 2*time.Millisecond)

	// Assert
	assert.Equal(t, 2.0, testutil.ToFloat64(m.verifications.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verifications.WithLabelValues("VerificationFailed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.verifyDuration))
}

func TestObserveKeyLookup(t *testing.T) {
	m := New()

	m.ObserveKeyLookup(verifier.LookupCacheHit)
	m.ObserveKeyLookup(verifier.LookupFetched)
	m.ObserveKeyLookup(verifier.LookupFetched)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.keyLookups.WithLabelValues(verifier.LookupCacheHit)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.keyLookups.WithLabelValues(verifier.LookupFetched)))
}

func TestMiddleware(t *testing.T) {
	// Setup
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/users/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	// Execute
	for _, id := range []string{"alice", "bob"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/"+id, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	// Assert
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestCounter.WithLabelValues("GET", "/users/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCounter.WithLabelValues("GET", "unmatched", "404")))
}

func TestHandler(t *testing.T) {
	// Setup
	m := New()
	m.TrackActors(func() int { return 3 })
	m.ObserveVerification(verifier.KindNoSignatureHeader, time.Millisecond)
	rec := httptest.NewRecorder()

	// Execute
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `rap_server_signature_verifications_total{result="NoSignatureHeader"} 1`)
	assert.Contains(t, body, "rap_server_keys_local_actors 3")
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
