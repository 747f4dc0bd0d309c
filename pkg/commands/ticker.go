package commands

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"mochibot/pkg/chart"
	"mochibot/pkg/defi"
	"mochibot/pkg/interaction"
)

var tickerRanges = []int{1, 7, 30, 60, 90, 365}

const (
	defaultTickerDays = 7

	tickerSelectionID = "tickers_selection"
	tickerRangeID     = "tickers_range_selection"
)

type ticker struct {
	market MarketData
	charts ChartRenderer
	now    func() time.Time
}

func newTickerCommand(market MarketData, charts ChartRenderer) *Command {
	t := &ticker{market: market, charts: charts, now: time.Now}
	return &Command{
		Name:        "ticker",
		Aliases:     []string{"tick"},
		Category:    "Defi",
		Description: "Display coin price and market cap",
		Usage:       "ticker <symbol|full_name>[/currency] [-d]",
		Examples:    []string{"ticker ftm", "ticker fantom", "ticker eth/eur", "ticker ftm -d (for default option)"},
		Handler:     t.handle,
	}
}

type coinPick struct {
	id       string
	currency string
}

func (t *ticker) handle(ctx context.Context, req CommandRequest) (CommandResponse, error) {
	args := req.Fields()
	defaultOpt := len(args) > 0 && args[len(args)-1] == "-d"
	if defaultOpt {
		args = args[:len(args)-1]
	}

	query := strings.Join(args, " ")
	if !strings.Contains(query, "/") {
		query += "/usd"
	}
	coinQ, currency, _ := strings.Cut(query, "/")
	coinQ = strings.TrimSpace(coinQ)
	currency = strings.TrimSpace(currency)
	if coinQ == "" {
		return CommandResponse{Render: errorRender("Please tell me which coin, e.g. `ticker btc`.")}, nil
	}

	coins, err := t.market.SearchCoins(ctx, coinQ)
	if err != nil {
		return CommandResponse{}, err
	}
	if len(coins) == 0 {
		return CommandResponse{Render: errorRender(fmt.Sprintf(
			"Cannot find any cryptocurrency with `%s`.\nPlease try again with the symbol or full name.", coinQ))}, nil
	}

	if len(coins) > 1 && !defaultOpt {
		return t.choices(coinQ, currency, coins), nil
	}

	render, next, err := t.view(ctx, req.UserID, coinPick{id: coins[0].ID, currency: currency})
	if err != nil {
		return CommandResponse{}, err
	}
	return CommandResponse{Render: render, Session: &PendingSession{Continuation: next}}, nil
}

// choices asks the user which of several matching coins they meant.
func (t *ticker) choices(coinQ, currency string, coins []defi.Coin) CommandResponse {
	options := make([]interaction.SelectOption, 0, len(coins))
	found := make([]string, 0, len(coins))
	for _, c := range coins {
		options = append(options, interaction.SelectOption{
			Label: fmt.Sprintf("%s (%s)", c.Name, c.Symbol),
			Value: interaction.EncodeValue(c.ID, currency),
		})
		found = append(found, fmt.Sprintf("**%s** (%s)", c.Name, c.Symbol))
	}

	embed := composeEmbed("🔍 Multiple tickers found", fmt.Sprintf(
		"Multiple tickers found for `%s`: %s.\nPlease select one of the following tokens",
		coinQ, strings.Join(found, ", ")))

	next := interaction.Narrowing[coinPick]{
		Parse: func(ev interaction.Event) (coinPick, error) {
			parts, err := interaction.DecodeValue(ev, 2)
			if err != nil {
				return coinPick{}, err
			}
			return coinPick{id: parts[0], currency: parts[1]}, nil
		},
		Then: func(ctx context.Context, pick coinPick, ev interaction.Event, _ interaction.RenderContext) (interaction.Outcome, error) {
			render, refine, err := t.view(ctx, ev.UserID, pick)
			if err != nil {
				return nil, err
			}
			return interaction.Next(render, refine), nil
		},
	}

	return CommandResponse{
		Render: interaction.Render{
			Embeds:     []interaction.Embed{embed},
			Components: []interaction.Row{selectRow(tickerSelectionID, "Make a selection", options), interaction.ExitRow()},
		},
		Session: &PendingSession{Continuation: next},
	}
}

// view renders the ticker embed with a default range chart and returns
// the refinement that swaps the chart when another range is picked.
func (t *ticker) view(ctx context.Context, userID string, pick coinPick) (interaction.Render, interaction.Continuation, error) {
	coin, err := t.market.GetCoin(ctx, pick.id)
	if err != nil {
		return interaction.Render{}, nil, err
	}
	currency := coin.Currency(pick.currency)
	file, err := t.chart(ctx, coin.ID, currency, defaultTickerDays)
	if err != nil {
		return interaction.Render{}, nil, err
	}

	render := interaction.Render{
		Content:    header("View historical market chart", userID),
		Embeds:     []interaction.Embed{tickerEmbed(coin, currency)},
		Files:      []interaction.File{file},
		Components: []interaction.Row{t.rangeRow(coin.ID, currency, defaultTickerDays), interaction.ExitRow()},
	}
	return render, t.ranges(coin.ID, currency), nil
}

func tickerEmbed(coin *defi.CoinDetail, currency string) interaction.Embed {
	md := coin.MarketData
	upper := strings.ToUpper(currency)
	prefix := defi.CurrencyPrefix(currency)

	return interaction.Embed{
		Color: chart.PaletteFor(coin.ID).Hex(),
		Author: &interaction.EmbedAuthor{
			Name:    coin.Name,
			IconURL: coin.Image.Small,
		},
		Footer:   "Data fetched from CoinGecko.com",
		ImageURL: "attachment://" + chart.FileName,
		Fields: []interaction.EmbedField{
			{
				Name:   fmt.Sprintf("Market cap (%s)", upper),
				Value:  fmt.Sprintf("%s%s (#%d)", prefix, defi.FormatAmount(md.MarketCap[currency], 0), coin.MarketCapRank),
				Inline: true,
			},
			{
				Name:   fmt.Sprintf("Price (%s)", upper),
				Value:  prefix + defi.FormatAmount(md.CurrentPrice[currency], 4),
				Inline: true,
			},
			{Name: blankField, Value: blankField, Inline: true},
			{Name: "Change (1h)", Value: defi.FormatChange(md.PriceChange1h[currency]), Inline: true},
			{Name: "Change (24h)", Value: defi.FormatChange(md.PriceChange24h[currency]), Inline: true},
			{Name: "Change (7d)", Value: defi.FormatChange(md.PriceChange7d[currency]), Inline: true},
		},
	}
}

// ranges re-renders only the chart and the range menu; the embed text and
// header of the message are preserved.
func (t *ticker) ranges(coinID, currency string) interaction.Continuation {
	return interaction.Refinement[int]{
		Parse: func(ev interaction.Event) (int, error) {
			parts, err := interaction.DecodeValue(ev, 3)
			if err != nil {
				return 0, err
			}
			days, err := strconv.Atoi(parts[2])
			if err != nil || !slices.Contains(tickerRanges, days) {
				return 0, fmt.Errorf("%w: range %q", interaction.ErrMalformedValue, parts[2])
			}
			return days, nil
		},
		Apply: func(ctx context.Context, days int, _ interaction.RenderContext) (interaction.Render, error) {
			file, err := t.chart(ctx, coinID, currency, days)
			if err != nil {
				return interaction.Render{}, err
			}
			return interaction.Render{
				Files:      []interaction.File{file},
				Components: []interaction.Row{t.rangeRow(coinID, currency, days), interaction.ExitRow()},
				Preserve:   interaction.PreserveContent | interaction.PreserveEmbeds,
			}, nil
		},
	}
}

func (t *ticker) chart(ctx context.Context, coinID, currency string, days int) (interaction.File, error) {
	h, err := t.market.GetHistory(ctx, coinID, currency, days)
	if err != nil {
		return interaction.File{}, err
	}

	s := chart.Series{
		Label:   fmt.Sprintf("Price (%s), %s - %s", strings.ToUpper(currency), h.From, h.To),
		Palette: chart.PaletteFor(coinID),
	}
	for _, p := range h.Points {
		s.Times = append(s.Times, p.Time)
		s.Values = append(s.Values, p.Price)
	}
	png, err := t.charts.Render(s)
	if err != nil {
		return interaction.File{}, err
	}
	return interaction.File{Name: chart.FileName, ContentType: "image/png", Data: png}, nil
}

func (t *ticker) rangeRow(coinID, currency string, selected int) interaction.Row {
	now := t.now()
	options := make([]interaction.SelectOption, 0, len(tickerRanges))
	for _, days := range tickerRanges {
		emoji := "📆"
		if days == 1 {
			emoji = "🕒"
		}
		options = append(options, interaction.SelectOption{
			Label:       rangeLabel(days),
			Value:       interaction.EncodeValue(coinID, currency, strconv.Itoa(days)),
			Emoji:       emoji,
			Description: defi.FormatDate(now.AddDate(0, 0, -days)) + " - " + defi.FormatDate(now),
			Default:     days == selected,
		})
	}
	return selectRow(tickerRangeID, "Make a selection", options)
}

func rangeLabel(days int) string {
	switch {
	case days == 365:
		return "1 year"
	case days == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}
