package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSender_Send(t *testing.T) {
	t.Parallel()

	var gotPath, gotReceptor, gotMessage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotReceptor = r.URL.Query().Get("receptor")
		gotMessage = r.URL.Query().Get("message")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewHTTPSender(srv.URL, "KEY", "10004346")
	require.NoError(t, s.Send(context.Background(), "09120000000", "code: 12345"))

	assert.Equal(t, "/KEY/sms/send.json", gotPath)
	assert.Equal(t, "09120000000", gotReceptor)
	assert.Equal(t, "code: 12345", gotMessage)
}

func TestHTTPSender_GatewayError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewHTTPSender(srv.URL, "BAD", "10004346")
	err := s.Send(context.Background(), "09120000000", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
