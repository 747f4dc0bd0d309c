package commands

import (
	"context"

	"mochibot/pkg/chart"
	"mochibot/pkg/community"
	"mochibot/pkg/defi"
)

// MarketData is the price source used by the defi commands.
type MarketData interface {
	SearchCoins(ctx context.Context, query string) ([]defi.Coin, error)
	GetCoin(ctx context.Context, id string) (*defi.CoinDetail, error)
	GetHistory(ctx context.Context, id, currency string, days int) (*defi.History, error)
	SupportedTokens(ctx context.Context) ([]defi.Token, error)
}

// ChartRenderer rasterizes a price series.
type ChartRenderer interface {
	Render(s chart.Series) ([]byte, error)
}

// Community is the guild feature API used by the community commands.
type Community interface {
	GetNFT(ctx context.Context, symbol, tokenID string) (*community.NFT, error)
	CreateStatChannel(ctx context.Context, guildID, countType string) error
	ConfigureInvites(ctx context.Context, cfg community.InviteConfig) error
}
