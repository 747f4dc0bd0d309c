package defi

import (
	"go.uber.org/fx"

	"mochibot/pkg/config"
	"mochibot/pkg/logger"
	"mochibot/pkg/state"
)

// Module provides the market data client.
var Module = fx.Module("defi",
	fx.Provide(ProvideClient),
)

// ProvideClient builds a Client from the apis config section.
func ProvideClient(log *logger.Logger, cfg *config.Config, cache state.KV) *Client {
	return NewClient(log.Named("defi"), Options{
		CoinGeckoBaseURL: cfg.APIs.CoinGeckoBaseURL,
		MochiBaseURL:     cfg.APIs.MochiBaseURL,
		Timeout:          cfg.APITimeout(),
		Cache:            cache,
		CacheTTL:         cfg.CacheTTL(),
	})
}
