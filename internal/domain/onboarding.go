package domain

import "time"

// Option is a selectable onboarding value with its label
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// AssetOptions are the preset coins offered during onboarding (CoinGecko ids)
var AssetOptions = []Option{
	{Value: "bitcoin", Label: "Bitcoin"},
	{Value: "ethereum", Label: "Ethereum"},
	{Value: "solana", Label: "Solana"},
	{Value: "ripple", Label: "Ripple (XRP)"},
	{Value: "cardano", Label: "Cardano"},
	{Value: "dogecoin", Label: "Dogecoin"},
	{Value: "binancecoin", Label: "BNB"},
	{Value: "tether", Label: "Tether (USDT)"},
	{Value: "avalanche-2", Label: "Avalanche (AVAX)"},
	{Value: "chainlink", Label: "Chainlink (LINK)"},
	{Value: "polkadot", Label: "Polkadot (DOT)"},
	{Value: "the-open-network", Label: "Toncoin (TON)"},
}

// InvestorTypeOptions has exactly one pick per profile
var InvestorTypeOptions = []Option{
	{Value: "long_term", Label: "HODLer"},
	{Value: "short_term", Label: "Day Trader"},
	{Value: "nft_collector", Label: "NFT Collector"},
	{Value: "swing_trader", Label: "Swing Trader"},
	{Value: "defi_yield", Label: "DeFi Yield Farmer"},
}

// ContentTypeOptions has one or more picks per profile
var ContentTypeOptions = []Option{
	{Value: "market_news", Label: "Market News & Price Moves"},
	{Value: "charts", Label: "Charts & Technical Analysis"},
	{Value: "fun", Label: "Fun (Memes & Humor)"},
	{Value: "development", Label: "Project Updates & Development"},
	{Value: "regulation", Label: "Regulation & Macro"},
	{Value: "security", Label: "Security & Risks"},
	{Value: "social", Label: "Social Buzz & Sentiment"},
}

// HasOption reports whether value is listed in opts
func HasOption(opts []Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}

// OnboardingProfile is what the user picked before submission
type OnboardingProfile struct {
	CryptoAssets []string
	InvestorType string
	ContentTypes []string
	// OtherAsset is optional free text resolved against coin search
	OtherAsset string
}

// OnboardingRequest is the POST /onboarding body
type OnboardingRequest struct {
	CryptoAssets []string `json:"crypto_assets"`
	InvestorType string   `json:"investor_type"`
	ContentType  []string `json:"content_type"`
}

// OnboardingResponse is returned by POST /onboarding
type OnboardingResponse struct {
	Saved    bool     `json:"saved"`
	Message  string   `json:"message,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// CoinMatch is one hit of the coin search
type CoinMatch struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// Preferences are the stored onboarding answers of a user
type Preferences struct {
	UserID       int64     `json:"-"`
	CryptoAssets []string  `json:"crypto_assets"`
	InvestorType string    `json:"investor_type"`
	ContentType  []string  `json:"content_type"`
	UpdatedAt    time.Time `json:"updated_at"`
}
