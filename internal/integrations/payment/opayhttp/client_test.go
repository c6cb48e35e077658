package opayhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_Authorize_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/authorize", r.URL.Path)
		require.Equal(t, "k", r.URL.Query().Get("apiKey"))

		var body struct {
			Reference string `json:"reference"`
			Amount    int64  `json:"amount"`
			Currency  string `json:"currency"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "order-1", body.Reference)
		require.Equal(t, int64(53_600), body.Amount)
		require.Equal(t, "NGN", body.Currency)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "reference": "order-1",
  "approved": true,
  "auth_code": "OP-1234",
  "processed_at": "2025-01-01T00:00:00Z"
}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k")
	res, err := c.Authorize(context.Background(), "order-1", 53_600)
	require.NoError(t, err)
	require.True(t, res.Approved)
	require.Equal(t, "OP-1234", res.AuthCode)
}

func TestClient_Authorize_429(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(429)
	}))
	defer srv.Close()

	c := New(srv.URL, "k")
	_, err := c.Authorize(context.Background(), "order-1", 1)
	require.Error(t, err)
}
