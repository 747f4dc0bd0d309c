package commands

import (
	"fmt"

	"mochibot/pkg/interaction"
)

const (
	colorDefault = 0x34ace0
	colorError   = 0xd94545

	blankField = "\u200b"
)

func composeEmbed(title, description string) interaction.Embed {
	return interaction.Embed{
		Title:       title,
		Description: description,
		Color:       colorDefault,
	}
}

// header is the line above an embed naming who asked for it.
func header(text, userID string) string {
	return fmt.Sprintf("> **%s** ・ requested by <@%s>", text, userID)
}

func errorRender(description string) interaction.Render {
	return interaction.Render{Embeds: []interaction.Embed{{
		Title:       "⛔ Command error",
		Description: description,
		Color:       colorError,
	}}}
}

func selectRow(customID, placeholder string, options []interaction.SelectOption) interaction.Row {
	return interaction.Row{Select: &interaction.SelectMenu{
		CustomID:    customID,
		Placeholder: placeholder,
		Options:     options,
	}}
}
