package defi

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"
)

// MaxSearchResults caps SearchCoins, matching the option limit of a
// select menu.
const MaxSearchResults = 25

// Coin is a search hit.
type Coin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
	Thumb         string `json:"thumb"`
}

// CoinDetail is the market snapshot of one coin.
type CoinDetail struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
	Image         struct {
		Thumb string `json:"thumb"`
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"image"`
	MarketData MarketData `json:"market_data"`
}

// MarketData holds per-currency figures keyed by lowercase currency code.
type MarketData struct {
	CurrentPrice   map[string]float64 `json:"current_price"`
	MarketCap      map[string]float64 `json:"market_cap"`
	PriceChange1h  map[string]float64 `json:"price_change_percentage_1h_in_currency"`
	PriceChange24h map[string]float64 `json:"price_change_percentage_24h_in_currency"`
	PriceChange7d  map[string]float64 `json:"price_change_percentage_7d_in_currency"`
}

// Currency returns currency lowercased if the coin is priced in it, or
// "usd" otherwise.
func (d *CoinDetail) Currency(currency string) string {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if _, ok := d.MarketData.CurrentPrice[currency]; ok && currency != "" {
		return currency
	}
	return "usd"
}

// PricePoint is one sample of a market chart.
type PricePoint struct {
	Time  time.Time
	Price float64
}

// History is a coin's price series over a number of days.
type History struct {
	CoinID   string
	Currency string
	Days     int
	Points   []PricePoint
	From     string
	To       string
}

// SearchCoins finds coins matching query by symbol, id or name. Exact
// matches win; otherwise near matches by edit distance are returned.
// Results are ordered by closeness, then market cap rank.
func (c *Client) SearchCoins(ctx context.Context, query string) ([]Coin, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}

	var payload struct {
		Coins []Coin `json:"coins"`
	}
	u := c.coingeckoURL("/search", url.Values{"query": {query}})
	if err := c.getJSON(ctx, "coingecko", u, &payload); err != nil {
		return nil, err
	}

	coins := RankCoins(query, payload.Coins)
	c.log.Debug("Coin search",
		zap.String("query", query),
		zap.Int("upstream", len(payload.Coins)),
		zap.Int("matches", len(coins)))
	return coins, nil
}

// RankCoins filters and orders search hits for query.
func RankCoins(query string, coins []Coin) []Coin {
	query = strings.ToLower(strings.TrimSpace(query))
	type scored struct {
		coin Coin
		dist int
	}

	var exact, near []scored
	for _, coin := range coins {
		symbol := strings.ToLower(coin.Symbol)
		name := strings.ToLower(coin.Name)
		if symbol == query || coin.ID == query || name == query {
			exact = append(exact, scored{coin, levenshtein.ComputeDistance(query, name)})
			continue
		}
		dist := min(
			levenshtein.ComputeDistance(query, name),
			levenshtein.ComputeDistance(query, symbol),
		)
		if dist <= maxDistance(query) {
			near = append(near, scored{coin, dist})
		}
	}

	list := exact
	if len(list) == 0 {
		list = near
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].dist != list[j].dist {
			return list[i].dist < list[j].dist
		}
		return rankLess(list[i].coin.MarketCapRank, list[j].coin.MarketCapRank)
	})

	out := make([]Coin, 0, min(len(list), MaxSearchResults))
	for i := 0; i < len(list) && i < MaxSearchResults; i++ {
		out = append(out, list[i].coin)
	}
	return out
}

func maxDistance(query string) int {
	if len(query) <= 3 {
		return 0
	}
	if len(query) <= 6 {
		return 1
	}
	return 2
}

// rankLess orders ranked coins first; rank 0 means unranked.
func rankLess(a, b int) bool {
	if a == 0 {
		return false
	}
	if b == 0 {
		return true
	}
	return a < b
}

// GetCoin fetches the market snapshot of coin id.
func (c *Client) GetCoin(ctx context.Context, id string) (*CoinDetail, error) {
	u := c.coingeckoURL("/coins/"+url.PathEscape(id), url.Values{
		"localization":   {"false"},
		"tickers":        {"false"},
		"community_data": {"false"},
		"developer_data": {"false"},
	})
	var detail CoinDetail
	if err := c.getJSON(ctx, "coingecko", u, &detail); err != nil {
		return nil, fmt.Errorf("get coin %s: %w", id, err)
	}
	return &detail, nil
}

// GetHistory fetches the price series of coin id over days.
func (c *Client) GetHistory(ctx context.Context, id, currency string, days int) (*History, error) {
	if days <= 0 {
		days = 7
	}
	currency = strings.ToLower(currency)
	u := c.coingeckoURL("/coins/"+url.PathEscape(id)+"/market_chart", url.Values{
		"vs_currency": {currency},
		"days":        {strconv.Itoa(days)},
	})

	var payload struct {
		Prices [][2]float64 `json:"prices"`
	}
	if err := c.getJSON(ctx, "coingecko", u, &payload); err != nil {
		return nil, fmt.Errorf("get market chart %s: %w", id, err)
	}

	h := &History{CoinID: id, Currency: currency, Days: days}
	for _, p := range payload.Prices {
		h.Points = append(h.Points, PricePoint{
			Time:  time.UnixMilli(int64(p[0])).UTC(),
			Price: p[1],
		})
	}
	now := c.now()
	h.From = FormatDate(now.AddDate(0, 0, -days))
	h.To = FormatDate(now)
	return h, nil
}

// FormatDate renders a chart range bound.
func FormatDate(t time.Time) string {
	return t.Format("January 2, 2006")
}
