package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cryptodash/internal/domain"
	"cryptodash/internal/observability"
)

const feedSource = "fixture"

// basePrices are the reference USD prices the fixture feed moves around
var basePrices = map[string]decimal.Decimal{
	"bitcoin":          decimal.RequireFromString("67250.00"),
	"ethereum":         decimal.RequireFromString("3480.50"),
	"solana":           decimal.RequireFromString("152.31"),
	"ripple":           decimal.RequireFromString("0.5120"),
	"cardano":          decimal.RequireFromString("0.4490"),
	"dogecoin":         decimal.RequireFromString("0.1587"),
	"binancecoin":      decimal.RequireFromString("585.20"),
	"tether":           decimal.RequireFromString("1.0000"),
	"avalanche-2":      decimal.RequireFromString("35.71"),
	"chainlink":        decimal.RequireFromString("14.92"),
	"polkadot":         decimal.RequireFromString("6.88"),
	"the-open-network": decimal.RequireFromString("6.95"),
}

// priceSwings are the 24h changes in percent the feed cycles through
var priceSwings = []string{"2.41", "-1.18", "0.37", "-3.05", "5.62", "-0.44"}

var headlines = []domain.NewsItem{
	{Title: "Spot ETF inflows extend weekly streak", URL: "https://example.com/news/etf-inflows", Summary: "Funds added another round of net inflows."},
	{Title: "Layer-2 fees drop after network upgrade", URL: "https://example.com/news/l2-fees", Summary: "Rollup costs fell to new lows."},
	{Title: "Regulators publish draft stablecoin rules", URL: "https://example.com/news/stablecoin-rules", Summary: "A consultation period opens next month."},
	{Title: "Validator client ships security patch", URL: "https://example.com/news/validator-patch", Summary: "Operators are asked to update promptly."},
	{Title: "DEX volumes climb as volatility returns", URL: "https://example.com/news/dex-volumes", Summary: "On-chain trading picked up across chains."},
	{Title: "Developer activity hits yearly high", URL: "https://example.com/news/dev-activity", Summary: "Commits to core repositories rose again."},
}

var insights = []string{
	"Momentum is positive but funding rates are rising; size positions conservatively.",
	"Volatility is compressing, which historically precedes a larger move in either direction.",
	"Stablecoin supply keeps growing, a sign that sidelined capital is waiting to enter.",
	"Your basket is concentrated in large caps; drawdowns should track the broader market.",
}

var jokes = []string{
	"Why did the trader bring a ladder? To reach the all-time high.",
	"I told my portfolio a joke. It didn't laugh, it just went sideways.",
	"HODL stands for Hold On for Dear Life, and my wallet agrees.",
	"My favourite exercise? Buying the dip.",
}

var memes = []domain.MemeSection{
	{Title: "When the chart finally goes up", URL: "https://example.com/memes/up-only.png"},
	{Title: "Me checking prices every five minutes", URL: "https://example.com/memes/checking.png"},
	{Title: "Bear market survivors club", URL: "https://example.com/memes/survivors.png"},
}

// sectionsFor maps content preferences to the optional sections they enable
var sectionsFor = map[string][]domain.Section{
	"market_news": {domain.SectionNews},
	"development": {domain.SectionNews},
	"regulation":  {domain.SectionNews},
	"security":    {domain.SectionNews},
	"social":      {domain.SectionNews, domain.SectionMeme},
	"charts":      {domain.SectionChart},
	"fun":         {domain.SectionMeme, domain.SectionFun},
}

// SectionFeed produces rotating fixture content for the development backend
type SectionFeed struct {
	mu       sync.Mutex
	rotation map[domain.Section]int
	now      func() time.Time
	prices   PriceSource
}

// NewSectionFeed creates a new SectionFeed
func NewSectionFeed() *SectionFeed {
	return &SectionFeed{
		rotation: make(map[domain.Section]int),
		now:      time.Now,
	}
}

// WithPriceSource makes the prices section live; fixtures are used when the source fails
func (f *SectionFeed) WithPriceSource(src PriceSource) *SectionFeed {
	f.prices = src
	return f
}

// SectionsFor returns the sections a user with prefs gets, in display order.
// Prices and the AI insight are always present.
func SectionsFor(prefs *domain.Preferences) []domain.Section {
	enabled := map[domain.Section]bool{
		domain.SectionPrices:    true,
		domain.SectionAIInsight: true,
	}
	if prefs != nil {
		for _, c := range prefs.ContentType {
			for _, s := range sectionsFor[c] {
				enabled[s] = true
			}
		}
	}
	var out []domain.Section
	for _, s := range domain.AllSections {
		if enabled[s] {
			out = append(out, s)
		}
	}
	return out
}

// Build generates every section prefs enables
func (f *SectionFeed) Build(ctx context.Context, prefs *domain.Preferences) (map[domain.Section]json.RawMessage, error) {
	sections := make(map[domain.Section]json.RawMessage)
	for _, s := range SectionsFor(prefs) {
		raw, err := f.Generate(ctx, s, prefs)
		if err != nil {
			return nil, err
		}
		sections[s] = raw
	}
	return sections, nil
}

// Generate produces the next payload of one section
func (f *SectionFeed) Generate(ctx context.Context, section domain.Section, prefs *domain.Preferences) (json.RawMessage, error) {
	f.mu.Lock()
	n := f.rotation[section]
	f.rotation[section] = n + 1
	now := f.now()
	f.mu.Unlock()

	var assets []string
	if prefs != nil {
		assets = prefs.CryptoAssets
	}

	var payload any
	switch section {
	case domain.SectionPrices:
		payload = f.livePrices(ctx, assets, n)
	case domain.SectionNews:
		payload = newsPayload(n, now)
	case domain.SectionAIInsight:
		payload = domain.TextSection{SectionMeta: domain.SectionMeta{Source: feedSource}, Data: insights[n%len(insights)]}
	case domain.SectionFun:
		payload = domain.TextSection{SectionMeta: domain.SectionMeta{Source: feedSource}, Data: jokes[n%len(jokes)]}
	case domain.SectionMeme:
		meme := memes[n%len(memes)]
		meme.Source = feedSource
		payload = meme
	case domain.SectionChart:
		payload = chartPayload(assets, n, now)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSection, section)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s section: %w", section, err)
	}
	return raw, nil
}

func (f *SectionFeed) livePrices(ctx context.Context, assets []string, n int) domain.PricesSection {
	if f.prices == nil || len(assets) == 0 {
		return pricesPayload(assets, n)
	}
	quotes, err := f.prices.FetchPrices(ctx, assets)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("[FEED] Live prices unavailable, using fixtures", "error", err)
		out := pricesPayload(assets, n)
		out.Error = "live prices unavailable"
		return out
	}
	out := domain.PricesSection{
		SectionMeta: domain.SectionMeta{Source: "coingecko"},
		Data:        quotes,
	}
	var missing []string
	for _, id := range assets {
		if _, ok := quotes[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		out.Error = "no price data for " + strings.Join(missing, ", ")
	}
	return out
}

func pricesPayload(assets []string, n int) domain.PricesSection {
	out := domain.PricesSection{
		SectionMeta: domain.SectionMeta{Source: feedSource},
		Data:        make(map[string]domain.PriceQuote),
	}
	var unknown []string
	for i, id := range assets {
		base, ok := basePrices[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		change := decimal.RequireFromString(priceSwings[(n+i)%len(priceSwings)])
		price := base.Mul(decimal.NewFromInt(100).Add(change.Div(decimal.NewFromInt(10)))).Div(decimal.NewFromInt(100))
		out.Data[id] = domain.PriceQuote{USD: price.Round(4), Change24h: change}
	}
	if len(unknown) > 0 {
		out.Error = "no price data for " + strings.Join(unknown, ", ")
	}
	return out
}

func newsPayload(n int, now time.Time) domain.NewsSection {
	out := domain.NewsSection{SectionMeta: domain.SectionMeta{Source: feedSource}}
	for i := 0; i < 3; i++ {
		item := headlines[(n*3+i)%len(headlines)]
		item.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(item.URL)).String()
		item.PublishedAt = now.Add(-time.Duration(i+1) * time.Hour).UTC().Format(time.RFC3339)
		out.Data = append(out.Data, item)
	}
	return out
}

func chartPayload(assets []string, n int, now time.Time) domain.ChartSection {
	out := domain.ChartSection{
		SectionMeta: domain.SectionMeta{Source: feedSource},
		Data:        make(map[string][][]float64),
	}
	for _, id := range assets {
		base, ok := basePrices[id]
		if !ok {
			continue
		}
		var points [][]float64
		for h := 23; h >= 0; h-- {
			swing := decimal.RequireFromString(priceSwings[(n+h)%len(priceSwings)])
			price := base.Mul(decimal.NewFromInt(1000).Add(swing)).Div(decimal.NewFromInt(1000))
			ts := now.Add(-time.Duration(h) * time.Hour).UnixMilli()
			points = append(points, []float64{float64(ts), price.InexactFloat64()})
		}
		out.Data[id] = points
	}
	return out
}

// KnownAsset reports whether the feed has data for an asset id
func KnownAsset(id string) bool {
	_, ok := basePrices[id]
	return ok
}
