package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketPriceService_FetchPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin,pepe", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":67123.45,"usd_24h_change":-1.23456}}`))
	}))
	defer srv.Close()

	prices, err := NewMarketPriceService(srv.URL+"/").FetchPrices(context.Background(), []string{"bitcoin", "pepe"})
	require.NoError(t, err)

	require.Contains(t, prices, "bitcoin")
	assert.Equal(t, "67123.45", prices["bitcoin"].USD.String())
	assert.Equal(t, "-1.23", prices["bitcoin"].Change24h.String())
	assert.NotContains(t, prices, "pepe")
}

func TestMarketPriceService_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewMarketPriceService(srv.URL).FetchPrices(context.Background(), []string{"bitcoin"})
	assert.Error(t, err)
}

func TestMarketPriceService_NoIDs(t *testing.T) {
	prices, err := NewMarketPriceService("http://unused").FetchPrices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, prices)
}
