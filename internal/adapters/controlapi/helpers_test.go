package controlapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newRawServer(t *testing.T, handler http.Handler) string {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts.URL + "/"
}
