package commands

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"mochibot/pkg/interaction"
	"mochibot/pkg/version"
)

var processStartTime = time.Now()

// RegisterBuiltinCommands registers help and status. store may be nil, in
// which case status omits the session count.
func RegisterBuiltinCommands(registry *Registry, store *interaction.Store) error {
	builtins := []*Command{
		{
			Name:        "help",
			Aliases:     []string{"h"},
			Category:    "Profile",
			Description: "Show available commands",
			Usage:       "help [command]",
			Examples:    []string{"help", "help ticker"},
			Handler:     helpHandler(registry),
		},
		{
			Name:        "status",
			Category:    "Profile",
			Description: "Show bot status",
			Usage:       "status",
			Handler:     statusHandler(store),
		},
	}

	for _, cmd := range builtins {
		if err := registry.Register(cmd); err != nil {
			return fmt.Errorf("failed to register %s: %w", cmd.Name, err)
		}
	}

	return nil
}

// helpHandler creates a handler for the help command.
func helpHandler(registry *Registry) CommandHandler {
	return func(ctx context.Context, req CommandRequest) (CommandResponse, error) {
		prefix := registry.Prefix()

		// If a specific command is requested, show detailed help
		if args := req.Fields(); len(args) > 0 {
			cmd, exists := registry.Get(args[0])
			if !exists {
				return CommandResponse{Render: errorRender(fmt.Sprintf(
					"Unknown command `%s`. Type `%shelp` to see all commands.", args[0], prefix))}, nil
			}
			return CommandResponse{Render: interaction.Render{
				Embeds: []interaction.Embed{commandHelp(prefix, cmd)},
			}}, nil
		}

		// Show all commands
		cmds := registry.List()
		if len(cmds) == 0 {
			return CommandResponse{Content: "No commands available."}, nil
		}

		var categories []string
		byCategory := make(map[string][]string)
		for _, cmd := range cmds {
			cat := cmd.Category
			if cat == "" {
				cat = "Other"
			}
			if _, seen := byCategory[cat]; !seen {
				categories = append(categories, cat)
			}
			byCategory[cat] = append(byCategory[cat], fmt.Sprintf("`%s%s`", prefix, cmd.Name))
		}

		embed := composeEmbed("🤖 Available Commands",
			fmt.Sprintf("Use `%shelp <command>` for detailed information.", prefix))
		for _, cat := range categories {
			embed.Fields = append(embed.Fields, interaction.EmbedField{
				Name:   cat,
				Value:  strings.Join(byCategory[cat], " "),
				Inline: true,
			})
		}

		return CommandResponse{Render: interaction.Render{Embeds: []interaction.Embed{embed}}}, nil
	}
}

func commandHelp(prefix string, cmd *Command) interaction.Embed {
	embed := composeEmbed(prefix+cmd.Name, cmd.Description)
	embed.Fields = append(embed.Fields, interaction.EmbedField{Name: "Usage", Value: "`" + prefix + cmd.Usage + "`"})
	if len(cmd.Examples) > 0 {
		lines := make([]string, len(cmd.Examples))
		for i, ex := range cmd.Examples {
			lines[i] = prefix + ex
		}
		embed.Fields = append(embed.Fields, interaction.EmbedField{
			Name:  "Examples",
			Value: "```\n" + strings.Join(lines, "\n") + "\n```",
		})
	}
	if len(cmd.Aliases) > 0 {
		embed.Fields = append(embed.Fields, interaction.EmbedField{Name: "Aliases", Value: strings.Join(cmd.Aliases, ", ")})
	}
	if cmd.AdminOnly {
		embed.Footer = "Server administrators only"
	}
	return embed
}

// statusHandler creates a handler for the status command.
func statusHandler(store *interaction.Store) CommandHandler {
	return func(ctx context.Context, req CommandRequest) (CommandResponse, error) {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		sessions := "n/a"
		if store != nil {
			sessions = fmt.Sprintf("%d", store.Len())
		}

		content := fmt.Sprintf(`✅ **Mochi Bot Status**

Channel: %s
Status: 🟢 Online
Version: %s
OS: %s/%s
Go: %s
Uptime: %s
Memory: %.2f MB
Open sessions: %s`,
			req.Channel,
			version.GetVersion(),
			runtime.GOOS,
			runtime.GOARCH,
			runtime.Version(),
			time.Since(processStartTime).Round(time.Second),
			float64(mem.Alloc)/1024.0/1024.0,
			sessions,
		)

		return CommandResponse{Content: content}, nil
	}
}
