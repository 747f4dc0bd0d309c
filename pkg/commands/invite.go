package commands

import (
	"context"
	"fmt"
	"strings"

	"mochibot/pkg/community"
	"mochibot/pkg/interaction"
)

func newInviteCommand(c Community) *Command {
	return &Command{
		Name:        "invite",
		Category:    "Community",
		Description: "Configure Invite Tracker log channel.",
		Usage:       "invite config <#channel>",
		Examples:    []string{"invite config #general", "invite cfg #general"},
		AdminOnly:   true,
		Handler: func(ctx context.Context, req CommandRequest) (CommandResponse, error) {
			args := req.Fields()
			if len(args) == 0 || (args[0] != "config" && args[0] != "cfg") {
				return CommandResponse{Render: errorRender("Usage: `invite config <#channel>`")}, nil
			}
			if len(args) < 2 {
				return CommandResponse{Content: header("Missing target channel", req.UserID)}, nil
			}
			if req.GuildID == "" {
				return CommandResponse{Render: errorRender("This command can only be used in a server.")}, nil
			}

			logChannel := strings.TrimSuffix(strings.TrimPrefix(args[1], "<#"), ">")
			err := c.ConfigureInvites(ctx, community.InviteConfig{GuildID: req.GuildID, LogChannel: logChannel})
			if err != nil {
				return CommandResponse{}, err
			}

			embed := composeEmbed("Invites Config", "")
			embed.Fields = []interaction.EmbedField{{
				Name:  "Done",
				Value: fmt.Sprintf("logs now display in <#%s> channel.", logChannel),
			}}
			return CommandResponse{Render: interaction.Render{Embeds: []interaction.Embed{embed}}}, nil
		},
	}
}
