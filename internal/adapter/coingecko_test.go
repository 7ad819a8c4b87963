package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodash/internal/domain"
)

func TestCoinGeckoClient_SearchCoins(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		gotQuery = r.URL.Query().Get("query")
		w.Write([]byte(`{"coins":[{"id":"the-open-network","name":"Toncoin","symbol":"TON","market_cap_rank":12}],"exchanges":[]}`))
	}))
	defer srv.Close()

	coins, err := NewCoinGeckoClient(srv.URL+"/").SearchCoins(context.Background(), "Toncoin / TON")
	require.NoError(t, err)

	assert.Equal(t, "Toncoin / TON", gotQuery)
	assert.Equal(t, []domain.CoinMatch{{ID: "the-open-network", Name: "Toncoin", Symbol: "TON"}}, coins)
}

func TestCoinGeckoClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewCoinGeckoClient(srv.URL).SearchCoins(context.Background(), "btc")
	assert.Error(t, err)
}
