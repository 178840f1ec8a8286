package paypal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_BearerToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		id, secret, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "client-id", id)
		assert.Equal(t, "client-secret", secret)

		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"A21AAF","token_type":"Bearer","expires_in":32400}`))
	}))
	defer srv.Close()

	c := NewClient("client-id", "client-secret", srv.URL, srv.URL)

	token, err := c.BearerToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A21AAF", token)
}

func TestClient_BearerToken_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		},
		{
			name: "empty access token",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"access_token":""}`))
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{oops`))
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient("id", "secret", srv.URL, srv.URL)
			_, err := c.BearerToken(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestClient_GetTransactionStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/checkout/orders/TXN-42", r.URL.Path)
		assert.Equal(t, "Bearer A21AAF", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "TXN-42",
			"status": "COMPLETED",
			"purchase_units": [{"amount": {"currency_code": "USD", "value": "115.00"}}]
		}`))
	}))
	defer srv.Close()

	c := NewClient("id", "secret", srv.URL, srv.URL+"/checkout/orders")

	status, err := c.GetTransactionStatus(context.Background(), "A21AAF", "TXN-42")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", status.Status)
	assert.Equal(t, "115.00", status.Amount)
}

func TestClient_GetTransactionStatus_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "no purchase units",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"COMPLETED","purchase_units":[]}`))
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient("id", "secret", srv.URL, srv.URL)
			_, err := c.GetTransactionStatus(context.Background(), "A21AAF", "TXN-42")
			assert.Error(t, err)
		})
	}
}
