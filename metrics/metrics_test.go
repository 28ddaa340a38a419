package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New(Options{Prefix: "statesync"})
	m.Scope.SubScope("store").Counter("puts").Inc(2)
	require.NoError(t, m.Close())

	recorder := httptest.NewRecorder()
	m.Handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "statesync_store_puts 2")
}
