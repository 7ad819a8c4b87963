package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cryptodash/internal/domain"
)

// PriceSource returns USD quotes for coin ids
type PriceSource interface {
	FetchPrices(ctx context.Context, ids []string) (map[string]domain.PriceQuote, error)
}

// MarketPriceService fetches live prices from the CoinGecko simple price endpoint
type MarketPriceService struct {
	httpClient *http.Client
	baseURL    string
}

// NewMarketPriceService creates a new MarketPriceService
func NewMarketPriceService(baseURL string) *MarketPriceService {
	return &MarketPriceService{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// FetchPrices fetches current prices for multiple coin ids. Ids CoinGecko
// does not know are absent from the result.
func (s *MarketPriceService) FetchPrices(ctx context.Context, ids []string) (map[string]domain.PriceQuote, error) {
	if len(ids) == 0 {
		return make(map[string]domain.PriceQuote), nil
	}

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")
	endpoint := fmt.Sprintf("%s/simple/price?%s", s.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices from CoinGecko: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CoinGecko API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var raw map[string]struct {
		USD       decimal.Decimal `json:"usd"`
		Change24h decimal.Decimal `json:"usd_24h_change"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	prices := make(map[string]domain.PriceQuote, len(raw))
	for id, p := range raw {
		prices[id] = domain.PriceQuote{USD: p.USD, Change24h: p.Change24h.Round(2)}
	}
	return prices, nil
}
