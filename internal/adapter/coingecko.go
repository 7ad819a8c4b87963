package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cryptodash/internal/domain"
)

// CoinGeckoClient resolves coin names through the public CoinGecko search
type CoinGeckoClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewCoinGeckoClient creates a new CoinGeckoClient
func NewCoinGeckoClient(baseURL string) *CoinGeckoClient {
	return &CoinGeckoClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SearchCoins returns the coins matching query, best match first
func (c *CoinGeckoClient) SearchCoins(ctx context.Context, query string) ([]domain.CoinMatch, error) {
	endpoint := fmt.Sprintf("%s/search?query=%s", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search CoinGecko: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("CoinGecko search error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var searchResp struct {
		Coins []domain.CoinMatch `json:"coins"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode CoinGecko response: %w", err)
	}

	return searchResp.Coins, nil
}
