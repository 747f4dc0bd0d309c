package defi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mochibot/pkg/logger"
	"mochibot/pkg/state"
)

func newTestServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "eth", r.URL.Query().Get("query"))
		writeJSON(w, map[string]any{"coins": []Coin{
			{ID: "ethereum-wormhole", Name: "Ethereum (Wormhole)", Symbol: "ETH", MarketCapRank: 0},
			{ID: "ethereum", Name: "Ethereum", Symbol: "ETH", MarketCapRank: 2},
			{ID: "ethereum-classic", Name: "Ethereum Classic", Symbol: "ETC", MarketCapRank: 24},
		}})
	})
	mux.HandleFunc("/coins/bitcoin", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "false", r.URL.Query().Get("tickers"))
		writeJSON(w, map[string]any{
			"id": "bitcoin", "name": "Bitcoin", "symbol": "btc", "market_cap_rank": 1,
			"image": map[string]string{"small": "https://img/btc.png"},
			"market_data": map[string]any{
				"current_price": map[string]float64{"usd": 64000.5, "eur": 59000},
				"market_cap":    map[string]float64{"usd": 1.26e12},
				"price_change_percentage_1h_in_currency": map[string]float64{"usd": 0.12},
			},
		})
	})
	mux.HandleFunc("/coins/bitcoin/market_chart", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "eur", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "30", r.URL.Query().Get("days"))
		writeJSON(w, map[string]any{"prices": [][2]float64{
			{1709294400000, 60000},
			{1709380800000, 61000.25},
		}})
	})
	mux.HandleFunc("/defi/tokens", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, map[string]any{"data": []Token{{ID: 1, Symbol: "ftm", Name: "Fantom", CoinGeckoID: "fantom"}}})
	})
	mux.HandleFunc("/coins/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(srv *httptest.Server, cache state.KV) *Client {
	return NewClient(logger.NewNop(), Options{
		CoinGeckoBaseURL: srv.URL,
		MochiBaseURL:     srv.URL + "/",
		Timeout:          time.Second,
		Cache:            cache,
		CacheTTL:         time.Minute,
	})
}

func TestSearchCoinsPrefersExactMatches(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(newTestServer(t, &hits), nil)

	coins, err := client.SearchCoins(context.Background(), " ETH ")
	require.NoError(t, err)
	require.Len(t, coins, 2)
	assert.Equal(t, "ethereum", coins[0].ID)
	assert.Equal(t, "ethereum-wormhole", coins[1].ID)
}

func TestRankCoinsFallsBackToNearMatches(t *testing.T) {
	coins := []Coin{
		{ID: "solana", Name: "Solana", Symbol: "SOL", MarketCapRank: 5},
		{ID: "solanium", Name: "Solanium", Symbol: "SLIM", MarketCapRank: 900},
		{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC", MarketCapRank: 1},
	}

	ranked := RankCoins("solanna", coins)
	require.Len(t, ranked, 1)
	assert.Equal(t, "solana", ranked[0].ID)

	assert.Empty(t, RankCoins("xyz", coins))
	assert.Len(t, RankCoins("btc", coins), 1)
}

func TestGetCoinAndCurrencyFallback(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(newTestServer(t, &hits), nil)

	coin, err := client.GetCoin(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", coin.Name)
	assert.Equal(t, 1, coin.MarketCapRank)
	assert.Equal(t, "https://img/btc.png", coin.Image.Small)
	assert.Equal(t, 64000.5, coin.MarketData.CurrentPrice["usd"])

	assert.Equal(t, "eur", coin.Currency("EUR"))
	assert.Equal(t, "usd", coin.Currency("doge"))
	assert.Equal(t, "usd", coin.Currency(""))
}

func TestGetCoinErrors(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(newTestServer(t, &hits), nil)

	_, err := client.GetCoin(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.GetCoin(context.Background(), "broken")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
}

func TestGetHistory(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(newTestServer(t, &hits), nil)
	client.now = func() time.Time { return time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC) }

	h, err := client.GetHistory(context.Background(), "bitcoin", "EUR", 30)
	require.NoError(t, err)
	require.Len(t, h.Points, 2)
	assert.Equal(t, 61000.25, h.Points[1].Price)
	assert.Equal(t, time.UnixMilli(1709294400000).UTC(), h.Points[0].Time)
	assert.Equal(t, "March 1, 2024", h.From)
	assert.Equal(t, "March 31, 2024", h.To)
}

func TestSupportedTokens(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(newTestServer(t, &hits), nil)

	tokens, err := client.SupportedTokens(context.Background())
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "ftm", tokens[0].Symbol)
}

func TestResponsesAreCached(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	cache, err := state.NewFileStore(logger.NewNop(), &state.FileStoreConfig{
		FilePath:     filepath.Join(t.TempDir(), "cache.json"),
		SaveInterval: time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	client := newTestClient(srv, cache)
	for i := 0; i < 3; i++ {
		_, err := client.GetCoin(context.Background(), "bitcoin")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, hits.Load())
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1,234,567,890", FormatAmount(1234567890, 0))
	assert.Equal(t, "1,234.5", FormatAmount(1234.5, 2))
	assert.Equal(t, "📈 +1.25%", FormatChange(1.2549))
	assert.Equal(t, "📉 -3.1%", FormatChange(-3.1))
	assert.Equal(t, "0%", FormatChange(0.001))
	assert.Equal(t, "$", CurrencyPrefix("usd"))
	assert.Empty(t, CurrencyPrefix("eur"))
}
