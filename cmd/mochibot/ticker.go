package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"mochibot/pkg/chart"
	"mochibot/pkg/config"
	"mochibot/pkg/defi"
	"mochibot/pkg/fileutil"
	"mochibot/pkg/logger"
	"mochibot/pkg/state"
)

var (
	tickerDays     int
	tickerCurrency string
	tickerOutput   string
)

var tickerCmd = &cobra.Command{
	Use:   "ticker <coin>",
	Short: "Print a coin's price and render its chart",
	Long: `Look a coin up the way the ticker command does and write its price
chart as a PNG, without connecting to Discord.

Examples:
  mochibot ticker btc
  mochibot ticker ethereum --currency eur --days 30 -o eth.png`,
	Args: cobra.ExactArgs(1),
	RunE: runTicker,
}

func init() {
	tickerCmd.Flags().IntVar(&tickerDays, "days", 7, "chart range in days")
	tickerCmd.Flags().StringVar(&tickerCurrency, "currency", "usd", "quote currency")
	tickerCmd.Flags().StringVarP(&tickerOutput, "output", "o", chart.FileName, "chart output file")
}

func runTicker(cmd *cobra.Command, args []string) error {
	var (
		market   *defi.Client
		renderer *chart.Renderer
	)
	app := fx.New(
		fx.Supply(config.Path(configPath)),
		config.Module,
		logger.Module,
		state.Module,
		defi.Module,
		chart.Module,
		fx.Populate(&market, &renderer),
		fx.NopLogger,
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer app.Stop(context.Background())

	coins, err := market.SearchCoins(ctx, args[0])
	if err != nil {
		return err
	}
	if len(coins) == 0 {
		return fmt.Errorf("no coin matches %q", args[0])
	}

	coin, err := market.GetCoin(ctx, coins[0].ID)
	if err != nil {
		return err
	}
	currency := coin.Currency(tickerCurrency)
	history, err := market.GetHistory(ctx, coin.ID, currency, tickerDays)
	if err != nil {
		return err
	}

	s := chart.Series{
		Label:   fmt.Sprintf("Price (%s), %s - %s", strings.ToUpper(currency), history.From, history.To),
		Palette: chart.PaletteFor(coin.ID),
	}
	for _, p := range history.Points {
		s.Times = append(s.Times, p.Time)
		s.Values = append(s.Values, p.Price)
	}
	png, err := renderer.Render(s)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(tickerOutput, png, 0o644); err != nil {
		return fmt.Errorf("writing chart: %w", err)
	}

	md := coin.MarketData
	fmt.Printf("%s (%s) #%d\n", coin.Name, strings.ToUpper(coin.Symbol), coin.MarketCapRank)
	fmt.Printf("  Price:  %s%s\n", defi.CurrencyPrefix(currency), defi.FormatAmount(md.CurrentPrice[currency], 4))
	fmt.Printf("  24h:    %s\n", defi.FormatChange(md.PriceChange24h[currency]))
	if len(coins) > 1 {
		fmt.Printf("  (%d other matches, showing the closest)\n", len(coins)-1)
	}
	fmt.Printf("Chart written to %s\n", tickerOutput)
	return nil
}
