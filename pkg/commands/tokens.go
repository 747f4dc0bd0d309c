package commands

import (
	"context"
	"strings"

	"mochibot/pkg/interaction"
)

func newTokensCommand(market MarketData) *Command {
	return &Command{
		Name:        "tokens",
		Aliases:     []string{"token", "tkn", "tk"},
		Category:    "Defi",
		Description: "Show all supported tokens by Mochi",
		Usage:       "tokens",
		Examples:    []string{"tokens"},
		Handler: func(ctx context.Context, req CommandRequest) (CommandResponse, error) {
			tokens, err := market.SupportedTokens(ctx)
			if err != nil {
				return CommandResponse{}, err
			}

			lines := make([]string, 0, len(tokens))
			for _, t := range tokens {
				lines = append(lines, "• **"+strings.ToUpper(t.Symbol)+"**")
			}
			embed := composeEmbed("", strings.Join(lines, "\n"))
			embed.Author = &interaction.EmbedAuthor{Name: "All supported tokens"}

			return CommandResponse{Render: interaction.Render{
				Content: header("View all supported tokens by Mochi", req.UserID),
				Embeds:  []interaction.Embed{embed},
			}}, nil
		},
	}
}
