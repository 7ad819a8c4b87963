package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// Fixed vote items for sections voted on as a whole
const (
	ItemPricesBlock  = "prices_block"
	ItemTodayInsight = "today_insight"
	ItemChartBlock   = "chart_block"
	ItemJoke         = "joke"
	ItemMemeFallback = "meme"
)

// SectionMeta is carried by every section payload
type SectionMeta struct {
	Source string `json:"source,omitempty"`
	Error  string `json:"error,omitempty"`
}

// PriceQuote is the price of one coin
type PriceQuote struct {
	USD       decimal.Decimal `json:"usd"`
	Change24h decimal.Decimal `json:"usd_24h_change"`
}

// PricesSection is the prices payload
type PricesSection struct {
	SectionMeta
	Data map[string]PriceQuote `json:"data"`
	Meta []json.RawMessage     `json:"meta,omitempty"`
}

// Coins returns the coin ids sorted
func (p *PricesSection) Coins() []string {
	coins := make([]string, 0, len(p.Data))
	for id := range p.Data {
		coins = append(coins, id)
	}
	sort.Strings(coins)
	return coins
}

// NewsItem is one headline
type NewsItem struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	PublishedAt string `json:"published_at"`
	Summary     string `json:"summary,omitempty"`
}

// NewsSection is the news payload
type NewsSection struct {
	SectionMeta
	Data []NewsItem `json:"data"`
}

// TextSection covers ai_insight and fun, whose data is plain text
type TextSection struct {
	SectionMeta
	Data string `json:"data"`
}

// MemeSection is the meme payload
type MemeSection struct {
	SectionMeta
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ChartSection maps coin id to [timestamp, price] points
type ChartSection struct {
	SectionMeta
	Data map[string][][]float64 `json:"data"`
}

// DecodeSection unmarshals a raw section payload into a typed view
func DecodeSection[T any](raw json.RawMessage) (*T, error) {
	var out T
	if len(raw) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode section payload: %w", err)
	}
	return &out, nil
}

// NewsItemKey is the vote item of a headline: its id, else its title, else its position
func NewsItemKey(n NewsItem, idx int) string {
	if n.ID != "" {
		return n.ID
	}
	if n.Title != "" {
		return n.Title
	}
	return strconv.Itoa(idx)
}

// VoteTarget is an addressable item of the current snapshot
type VoteTarget struct {
	Key   VoteKey
	Label string
}

// VoteTargets lists every votable item of d in section display order.
// Sections that fail to decode contribute nothing.
func VoteTargets(d *Dashboard) []VoteTarget {
	if d == nil {
		return nil
	}
	var targets []VoteTarget
	add := func(s Section, item, label string) {
		targets = append(targets, VoteTarget{Key: VoteKey{Section: string(s), Item: item}, Label: label})
	}
	for _, s := range AllSections {
		raw, ok := d.Sections[s]
		if !ok {
			continue
		}
		switch s {
		case SectionPrices:
			add(s, ItemPricesBlock, "Prices")
		case SectionAIInsight:
			add(s, ItemTodayInsight, "AI Insight")
		case SectionChart:
			add(s, ItemChartBlock, "Chart")
		case SectionFun:
			add(s, ItemJoke, "Joke")
		case SectionNews:
			news, err := DecodeSection[NewsSection](raw)
			if err != nil {
				continue
			}
			for i, n := range news.Data {
				add(s, NewsItemKey(n, i), n.Title)
			}
		case SectionMeme:
			meme, err := DecodeSection[MemeSection](raw)
			if err != nil {
				continue
			}
			item := meme.URL
			if item == "" {
				item = ItemMemeFallback
			}
			add(s, item, meme.Title)
		}
	}
	return targets
}
