package channels

import (
	"context"

	"go.uber.org/fx"

	"mochibot/pkg/channels/discord"
	"mochibot/pkg/commands"
	"mochibot/pkg/config"
	"mochibot/pkg/interaction"
	"mochibot/pkg/logger"
)

// Module is the fx module for channels.
var Module = fx.Module("channels",
	fx.Provide(NewChannelManager),
	fx.Invoke(RegisterChannels),
)

// NewChannelManager creates a new channel manager for fx.
func NewChannelManager(lc fx.Lifecycle, log *logger.Logger) *Manager {
	manager := NewManager(log.Named("channels"))

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return manager.Start()
		},
		OnStop: func(ctx context.Context) error {
			return manager.Stop()
		},
	})

	return manager
}

// RegisterChannels registers all available channels with the manager.
func RegisterChannels(
	manager *Manager,
	log *logger.Logger,
	cfg *config.Config,
	invoker *commands.Invoker,
	router *interaction.Router,
) error {
	if !cfg.Discord.Enabled {
		return nil
	}
	ch, err := discord.NewChannel(log.Named("discord"), cfg, invoker, router)
	if err != nil {
		return err
	}
	return manager.Register(ch)
}
