package chart

import (
	"go.uber.org/fx"

	"mochibot/pkg/config"
)

// Module provides the chart renderer.
var Module = fx.Module("chart",
	fx.Provide(func(cfg *config.Config) *Renderer {
		return NewRenderer(cfg.Chart.Width, cfg.Chart.Height)
	}),
)
