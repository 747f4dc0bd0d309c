package commands

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"mochibot/pkg/chart"
	"mochibot/pkg/community"
	"mochibot/pkg/config"
	"mochibot/pkg/defi"
	"mochibot/pkg/interaction"
	"mochibot/pkg/logger"
)

// Module provides the command registry and invoker.
var Module = fx.Module("commands",
	fx.Provide(ProvideRegistry),
	fx.Provide(ProvideInvoker),
	fx.Invoke(registerBuiltins),
	fx.Invoke(registerDomain),
)

// ProvideRegistry creates the registry with the configured prefix.
func ProvideRegistry(cfg *config.Config) *Registry {
	return NewRegistry(cfg.Discord.Prefix)
}

// ProvideInvoker wires the invoker to the interaction router.
func ProvideInvoker(registry *Registry, router *interaction.Router, log *logger.Logger, cfg *config.Config) *Invoker {
	return NewInvoker(registry, router, log.Named("commands"), cfg.CommandTimeout)
}

// registerBuiltins registers built-in commands on startup.
func registerBuiltins(registry *Registry, store *interaction.Store, log *logger.Logger) error {
	if err := RegisterBuiltinCommands(registry, store); err != nil {
		log.Error("Failed to register builtin commands", zap.Error(err))
		return err
	}

	log.Info("Registered builtin commands", zap.Int("count", len(registry.List())))
	return nil
}

// registerDomain registers the defi and community commands.
func registerDomain(
	registry *Registry,
	log *logger.Logger,
	market *defi.Client,
	charts *chart.Renderer,
	comm *community.Client,
) error {
	if err := RegisterDomainCommands(registry, market, charts, comm); err != nil {
		log.Error("Failed to register domain commands", zap.Error(err))
		return err
	}

	log.Info("Registered domain commands",
		zap.Int("total_commands", len(registry.List())))
	return nil
}

// RegisterDomainCommands registers ticker, tokens, stats, nft and invite.
func RegisterDomainCommands(registry *Registry, market MarketData, charts ChartRenderer, comm Community) error {
	for _, cmd := range []*Command{
		newTickerCommand(market, charts),
		newTokensCommand(market),
		newStatsCommand(comm),
		newNFTCommand(comm),
		newInviteCommand(comm),
	} {
		if err := registry.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}
