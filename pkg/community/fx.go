package community

import (
	"go.uber.org/fx"

	"mochibot/pkg/config"
	"mochibot/pkg/logger"
)

// Module provides the Mochi community client.
var Module = fx.Module("community",
	fx.Provide(func(log *logger.Logger, cfg *config.Config) *Client {
		return NewClient(log.Named("community"), cfg.APIs.MochiBaseURL, cfg.APITimeout())
	}),
)
