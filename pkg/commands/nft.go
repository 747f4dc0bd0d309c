package commands

import (
	"context"
	"fmt"
	"strings"

	"mochibot/pkg/community"
	"mochibot/pkg/interaction"
)

var rarityEmoji = map[string]string{
	"Common":    "⚪⚪⚪",
	"Uncommon":  "🟢🟢🟢",
	"Rare":      "🔵🔵🔵",
	"Legendary": "🟠🟠🟠",
	"Mythic":    "🟣🟣🟣",
}

func newNFTCommand(c Community) *Command {
	return &Command{
		Name:        "nft",
		Category:    "Community",
		Description: "Show an NFT with its traits and rarity rank",
		Usage:       "nft <symbol> <token_id>",
		Examples:    []string{"nft neko 1"},
		Handler: func(ctx context.Context, req CommandRequest) (CommandResponse, error) {
			args := req.Fields()
			if len(args) < 2 {
				return CommandResponse{Render: errorRender("Usage: `nft <symbol> <token_id>`")}, nil
			}
			symbol, tokenID := args[0], args[1]

			nft, err := c.GetNFT(ctx, symbol, tokenID)
			switch {
			case community.IsRecordNotFound(err):
				return CommandResponse{Render: nftNotice("Symbol collection not supported")}, nil
			case err != nil:
				return CommandResponse{Render: nftNotice("Something went wrong, unknown error !!!")}, nil
			}
			return CommandResponse{Render: interaction.Render{Embeds: []interaction.Embed{nftEmbed(symbol, nft)}}}, nil
		},
	}
}

func nftNotice(text string) interaction.Render {
	return interaction.Render{Embeds: []interaction.Embed{composeEmbed("NFT", text)}}
}

func nftEmbed(symbol string, nft *community.NFT) interaction.Embed {
	var desc string
	if nft.Name != "" {
		desc = "**" + nft.Name + "**"
	}
	if nft.Rank != nil {
		emoji := rarityEmoji["Common"]
		if trait, ok := nft.RarestTrait(); ok {
			if e, ok := rarityEmoji[trait.Rarity]; ok {
				emoji = e
			}
		}
		desc += fmt.Sprintf("\n\n🏆** ・ Rank: %d ・** %s", *nft.Rank, emoji)
	}

	embed := composeEmbed(strings.ToUpper(symbol[:1])+symbol[1:], desc)
	embed.ImageURL = nft.ImageURL()
	if len(nft.Attributes) > 0 {
		for _, a := range nft.Attributes {
			embed.Fields = append(embed.Fields, interaction.EmbedField{Name: a.TraitType, Value: string(a.Value), Inline: true})
		}
		embed.Fields = append(embed.Fields, interaction.EmbedField{Name: blankField, Value: blankField, Inline: true})
	}
	return embed
}
