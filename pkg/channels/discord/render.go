package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"mochibot/pkg/interaction"
)

var errNoInteraction = errors.New("event carries no discord interaction")

// sender is the part of *discordgo.Session the renderer needs.
type sender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseEdit(i *discordgo.Interaction, edit *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(i *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Renderer applies renders to Discord messages. Component interactions
// must already be acknowledged with a deferred update.
type Renderer struct {
	s sender
}

// NewRenderer creates a Renderer sending through s.
func NewRenderer(s *discordgo.Session) *Renderer {
	return &Renderer{s: s}
}

// ApplyRender implements interaction.Renderer.
func (r *Renderer) ApplyRender(ctx context.Context, ev interaction.Event, target interaction.Target, render interaction.Render) (interaction.MessageRef, error) {
	i, hasInteraction := ev.Raw.(*discordgo.Interaction)

	var (
		msg *discordgo.Message
		err error
	)
	switch {
	case target == interaction.TargetOriginal:
		if !hasInteraction {
			return interaction.MessageRef{}, errNoInteraction
		}
		msg, err = r.s.InteractionResponseEdit(i, webhookEdit(render), discordgo.WithContext(ctx))
	case target == interaction.TargetEphemeral && hasInteraction:
		params := &discordgo.WebhookParams{
			Content:    render.Content,
			Embeds:     embeds(render.Embeds),
			Components: components(render.Components),
			Files:      files(render.Files),
			Flags:      discordgo.MessageFlagsEphemeral,
		}
		msg, err = r.s.FollowupMessageCreate(i, true, params, discordgo.WithContext(ctx))
	default:
		// prefix commands have no interaction to answer privately
		msg, err = r.s.ChannelMessageSendComplex(ev.ChannelID, &discordgo.MessageSend{
			Content:    render.Content,
			Embeds:     embeds(render.Embeds),
			Components: components(render.Components),
			Files:      files(render.Files),
		}, discordgo.WithContext(ctx))
	}
	if err != nil {
		return interaction.MessageRef{}, fmt.Errorf("discord %s render: %w", target, err)
	}
	if msg == nil {
		return interaction.MessageRef{ChannelID: ev.ChannelID, MessageID: ev.MessageID}, nil
	}
	return interaction.MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID}, nil
}

// webhookEdit leaves preserved parts nil so Discord keeps them. New files
// replace every existing attachment.
func webhookEdit(r interaction.Render) *discordgo.WebhookEdit {
	edit := &discordgo.WebhookEdit{}
	if !r.Preserve.Has(interaction.PreserveContent) {
		content := r.Content
		edit.Content = &content
	}
	if !r.Preserve.Has(interaction.PreserveEmbeds) {
		e := embeds(r.Embeds)
		if e == nil {
			e = []*discordgo.MessageEmbed{}
		}
		edit.Embeds = &e
	}
	if !r.Preserve.Has(interaction.PreserveComponents) {
		c := components(r.Components)
		if c == nil {
			c = []discordgo.MessageComponent{}
		}
		edit.Components = &c
	}
	if len(r.Files) > 0 {
		edit.Files = files(r.Files)
		edit.Attachments = &[]*discordgo.MessageAttachment{}
	}
	return edit
}

func embeds(in []interaction.Embed) []*discordgo.MessageEmbed {
	if len(in) == 0 {
		return nil
	}
	out := make([]*discordgo.MessageEmbed, 0, len(in))
	for _, e := range in {
		me := &discordgo.MessageEmbed{
			URL:         e.URL,
			Title:       e.Title,
			Description: e.Description,
			Color:       e.Color,
			Timestamp:   e.Timestamp,
		}
		if e.Author != nil {
			me.Author = &discordgo.MessageEmbedAuthor{Name: e.Author.Name, IconURL: e.Author.IconURL, URL: e.Author.URL}
		}
		if e.Footer != "" {
			me.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
		}
		if e.ImageURL != "" {
			me.Image = &discordgo.MessageEmbedImage{URL: e.ImageURL}
		}
		if e.ThumbnailURL != "" {
			me.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.ThumbnailURL}
		}
		for _, f := range e.Fields {
			me.Fields = append(me.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
		}
		out = append(out, me)
	}
	return out
}

func components(rows []interaction.Row) []discordgo.MessageComponent {
	if len(rows) == 0 {
		return nil
	}
	out := make([]discordgo.MessageComponent, 0, len(rows))
	for _, row := range rows {
		var items []discordgo.MessageComponent
		if row.Select != nil {
			items = append(items, selectMenu(row.Select))
		}
		for _, b := range row.Buttons {
			items = append(items, discordgo.Button{
				CustomID: b.CustomID,
				Label:    b.Label,
				Style:    discordgo.ButtonStyle(b.Style),
				Emoji:    emoji(b.Emoji),
			})
		}
		if len(items) > 0 {
			out = append(out, discordgo.ActionsRow{Components: items})
		}
	}
	return out
}

func selectMenu(m *interaction.SelectMenu) discordgo.SelectMenu {
	options := make([]discordgo.SelectMenuOption, 0, len(m.Options))
	for _, o := range m.Options {
		options = append(options, discordgo.SelectMenuOption{
			Label:       o.Label,
			Value:       o.Value,
			Description: o.Description,
			Emoji:       emoji(o.Emoji),
			Default:     o.Default,
		})
	}
	return discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    m.CustomID,
		Placeholder: m.Placeholder,
		Options:     options,
	}
}

func emoji(name string) *discordgo.ComponentEmoji {
	if name == "" {
		return nil
	}
	return &discordgo.ComponentEmoji{Name: name}
}

func files(in []interaction.File) []*discordgo.File {
	if len(in) == 0 {
		return nil
	}
	out := make([]*discordgo.File, 0, len(in))
	for _, f := range in {
		out = append(out, &discordgo.File{Name: f.Name, ContentType: f.ContentType, Reader: bytes.NewReader(f.Data)})
	}
	return out
}
