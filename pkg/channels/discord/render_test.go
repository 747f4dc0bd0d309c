package discord

import (
	"context"
	"io"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mochibot/pkg/interaction"
)

type fakeSender struct {
	sent      []*discordgo.MessageSend
	edits     []*discordgo.WebhookEdit
	followups []*discordgo.WebhookParams
}

func (f *fakeSender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent = append(f.sent, data)
	return &discordgo.Message{ID: "new-msg", ChannelID: channelID}, nil
}

func (f *fakeSender) InteractionResponseEdit(i *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.edits = append(f.edits, edit)
	return &discordgo.Message{ID: i.Message.ID, ChannelID: i.ChannelID}, nil
}

func (f *fakeSender) FollowupMessageCreate(i *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.followups = append(f.followups, data)
	return &discordgo.Message{ID: "followup", ChannelID: i.ChannelID}, nil
}

func componentInteraction(customID string, values ...string) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   "g1",
		ChannelID: "c1",
		Message:   &discordgo.Message{ID: "m1", ChannelID: "c1"},
		Member:    &discordgo.Member{User: &discordgo.User{ID: "u1", Username: "alice"}},
		Data: discordgo.MessageComponentInteractionData{
			CustomID:      customID,
			ComponentType: discordgo.SelectMenuComponent,
			Values:        values,
		},
	}
}

func TestRenderNewMessage(t *testing.T) {
	fs := &fakeSender{}
	r := &Renderer{s: fs}

	render := interaction.Render{
		Content: "hello",
		Embeds: []interaction.Embed{{
			Title:    "t",
			Color:    0x34ace0,
			Author:   &interaction.EmbedAuthor{Name: "Ethereum"},
			Footer:   "footer",
			ImageURL: "attachment://chart.png",
			Fields:   []interaction.EmbedField{{Name: "a", Value: "b", Inline: true}},
		}},
		Components: []interaction.Row{
			{Select: &interaction.SelectMenu{
				CustomID:    "pick",
				Placeholder: "Make a selection",
				Options:     []interaction.SelectOption{{Label: "One", Value: "1", Emoji: "📆", Default: true}},
			}},
			interaction.ExitRow(),
		},
		Files: []interaction.File{{Name: "chart.png", ContentType: "image/png", Data: []byte("png")}},
	}

	ref, err := r.ApplyRender(context.Background(), interaction.Event{ChannelID: "c1"}, interaction.TargetNew, render)
	require.NoError(t, err)
	assert.Equal(t, interaction.MessageRef{ChannelID: "c1", MessageID: "new-msg"}, ref)

	require.Len(t, fs.sent, 1)
	msg := fs.sent[0]
	assert.Equal(t, "hello", msg.Content)
	require.Len(t, msg.Embeds, 1)
	assert.Equal(t, "Ethereum", msg.Embeds[0].Author.Name)
	assert.Equal(t, "footer", msg.Embeds[0].Footer.Text)
	assert.Equal(t, "attachment://chart.png", msg.Embeds[0].Image.URL)
	require.Len(t, msg.Components, 2)

	row := msg.Components[0].(discordgo.ActionsRow)
	menu := row.Components[0].(discordgo.SelectMenu)
	assert.Equal(t, discordgo.StringSelectMenu, menu.MenuType)
	assert.Equal(t, "pick", menu.CustomID)
	assert.Equal(t, "📆", menu.Options[0].Emoji.Name)
	assert.True(t, menu.Options[0].Default)

	exit := msg.Components[1].(discordgo.ActionsRow).Components[0].(discordgo.Button)
	assert.Equal(t, interaction.ExitCustomID, exit.CustomID)
	assert.Equal(t, discordgo.SecondaryButton, exit.Style)

	require.Len(t, msg.Files, 1)
	data, err := io.ReadAll(msg.Files[0].Reader)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestRenderOriginalHonoursPreserve(t *testing.T) {
	fs := &fakeSender{}
	r := &Renderer{s: fs}
	i := componentInteraction("tickers_range_selection", "x")

	render := interaction.Render{
		Files:    []interaction.File{{Name: "chart.png", Data: []byte("png")}},
		Preserve: interaction.PreserveContent | interaction.PreserveEmbeds,
	}
	ref, err := r.ApplyRender(context.Background(), interaction.Event{ChannelID: "c1", MessageID: "m1", Raw: i}, interaction.TargetOriginal, render)
	require.NoError(t, err)
	assert.Equal(t, "m1", ref.MessageID)

	require.Len(t, fs.edits, 1)
	edit := fs.edits[0]
	assert.Nil(t, edit.Content)
	assert.Nil(t, edit.Embeds)
	require.NotNil(t, edit.Components)
	assert.Empty(t, *edit.Components)
	require.NotNil(t, edit.Attachments)
	assert.Empty(t, *edit.Attachments)
	assert.Len(t, edit.Files, 1)
}

func TestRenderOriginalClearsUnpreservedParts(t *testing.T) {
	fs := &fakeSender{}
	r := &Renderer{s: fs}

	_, err := r.ApplyRender(context.Background(), interaction.Event{Raw: componentInteraction("x")}, interaction.TargetOriginal,
		interaction.Render{Content: "done"})
	require.NoError(t, err)

	edit := fs.edits[0]
	require.NotNil(t, edit.Content)
	assert.Equal(t, "done", *edit.Content)
	require.NotNil(t, edit.Embeds)
	assert.Empty(t, *edit.Embeds)
	assert.Nil(t, edit.Attachments)
}

func TestRenderOriginalNeedsInteraction(t *testing.T) {
	r := &Renderer{s: &fakeSender{}}
	_, err := r.ApplyRender(context.Background(), interaction.Event{ChannelID: "c1"}, interaction.TargetOriginal, interaction.Render{})
	assert.ErrorIs(t, err, errNoInteraction)
}

func TestRenderEphemeral(t *testing.T) {
	fs := &fakeSender{}
	r := &Renderer{s: fs}

	_, err := r.ApplyRender(context.Background(), interaction.Event{Raw: componentInteraction("x")}, interaction.TargetEphemeral,
		interaction.Notice("This is not your interaction."))
	require.NoError(t, err)
	require.Len(t, fs.followups, 1)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, fs.followups[0].Flags)
	assert.Equal(t, "This is not your interaction.", fs.followups[0].Content)

	// without an interaction the notice becomes a channel message
	_, err = r.ApplyRender(context.Background(), interaction.Event{ChannelID: "c1"}, interaction.TargetEphemeral, interaction.Notice("hi"))
	require.NoError(t, err)
	assert.Len(t, fs.sent, 1)
}
