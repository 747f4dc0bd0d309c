package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mochibot/pkg/community"
	"mochibot/pkg/defi"
	"mochibot/pkg/interaction"
)

func TestStatsRequiresAdmin(t *testing.T) {
	h := newHarness()

	require.NoError(t, h.run("$stats", false))
	assert.Equal(t, adminOnlyMessage, h.out.last().Render.Embeds[0].Description)
	assert.Equal(t, 0, h.router.Store().Len())
}

func TestStatsThreeStepFlow(t *testing.T) {
	h := newHarness()

	require.NoError(t, h.run("$stats", true))
	menu := h.out.last().Render.Components[0].Select
	require.NotNil(t, menu)
	assert.Equal(t, statsStatSelectionID, menu.CustomID)
	assert.Len(t, menu.Options, 5)

	res := h.pick("msg-1", statsStatSelectionID, "channels")
	require.Equal(t, interaction.StatusHandled, res.Status, "err: %v", res.Err)
	types := h.out.last().Render.Components[0].Select
	require.NotNil(t, types)
	assert.Equal(t, statsTypeSelectionID, types.CustomID)
	require.Len(t, types.Options, 6)
	assert.Equal(t, "voice_channels", types.Options[2].Value)

	res = h.pick("msg-1", statsTypeSelectionID, "voice_channels")
	require.Equal(t, interaction.StatusHandled, res.Status, "err: %v", res.Err)
	assert.IsType(t, interaction.Terminal{}, res.Outcome)
	done := h.out.last()
	assert.Equal(t, "Successfully count voice channels", done.Render.Embeds[0].Description)
	assert.Empty(t, done.Render.Components)
	assert.Equal(t, []string{"guild-1:voice_channels"}, h.community.stats)
	assert.Equal(t, 0, h.router.Store().Len())
}

func TestStatsRejectsMismatchedType(t *testing.T) {
	h := newHarness()

	require.NoError(t, h.run("$stats", true))
	require.Equal(t, interaction.StatusHandled, h.pick("msg-1", statsStatSelectionID, "roles").Status)

	res := h.pick("msg-1", statsTypeSelectionID, "voice_roles")
	assert.Equal(t, interaction.StatusFailed, res.Status)
	assert.Empty(t, h.community.stats)
}

func TestNFTCommand(t *testing.T) {
	h := newHarness()
	rank := 12
	h.community.nft = &community.NFT{
		Name:  "Neko #1",
		Image: "ipfs://QmHash/1.png",
		Rank:  &rank,
		Attributes: []community.Attribute{
			{TraitType: "Fur", Value: "Golden", Count: 3, Rarity: "Legendary"},
			{TraitType: "Eyes", Value: "Blue", Count: 400, Rarity: "Common"},
		},
	}

	require.NoError(t, h.run("$nft neko 1", false))
	embed := h.out.last().Render.Embeds[0]
	assert.Equal(t, "Neko", embed.Title)
	assert.Equal(t, "**Neko #1**\n\n🏆** ・ Rank: 12 ・** 🟠🟠🟠", embed.Description)
	assert.Equal(t, "https://ipfs.io/ipfs/QmHash/1.png", embed.ImageURL)
	require.Len(t, embed.Fields, 3)
	assert.Equal(t, "Fur", embed.Fields[0].Name)
	assert.Equal(t, "Golden", embed.Fields[0].Value)
	assert.Equal(t, blankField, embed.Fields[2].Name)
}

func TestNFTCommandErrors(t *testing.T) {
	h := newHarness()

	h.community.nftErr = &community.APIError{Status: 500, Message: "record not found"}
	require.NoError(t, h.run("$nft nope 1", false))
	assert.Equal(t, "Symbol collection not supported", h.out.last().Render.Embeds[0].Description)

	h.community.nftErr = &community.APIError{Status: 500, Message: "boom"}
	require.NoError(t, h.run("$nft nope 1", false))
	assert.Equal(t, "Something went wrong, unknown error !!!", h.out.last().Render.Embeds[0].Description)
}

func TestInviteConfig(t *testing.T) {
	h := newHarness()

	require.NoError(t, h.run("$invite cfg <#12345>", true))
	embed := h.out.last().Render.Embeds[0]
	assert.Equal(t, "Invites Config", embed.Title)
	require.Len(t, embed.Fields, 1)
	assert.Equal(t, "logs now display in <#12345> channel.", embed.Fields[0].Value)
	assert.Equal(t, []community.InviteConfig{{GuildID: "guild-1", LogChannel: "12345"}}, h.community.invites)
}

func TestInviteConfigMissingChannel(t *testing.T) {
	h := newHarness()

	require.NoError(t, h.run("$invite config", true))
	assert.Equal(t, "> **Missing target channel** ・ requested by <@user-1>", h.out.last().Render.Content)
	assert.Empty(t, h.community.invites)
}

func TestTokensCommand(t *testing.T) {
	h := newHarness()
	h.market.tokens = []defi.Token{{Symbol: "ftm"}, {Symbol: "eth"}}

	require.NoError(t, h.run("$tkn", false))
	msg := h.out.last().Render
	assert.Equal(t, "> **View all supported tokens by Mochi** ・ requested by <@user-1>", msg.Content)
	assert.Equal(t, "All supported tokens", msg.Embeds[0].Author.Name)
	assert.Equal(t, "• **FTM**\n• **ETH**", msg.Embeds[0].Description)
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness()
	err := h.invoker.Execute(context.Background(), CommandRequest{Command: "nope"}, h.out)
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Equal(t, 0, h.out.count())
}
