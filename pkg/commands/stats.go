package commands

import (
	"context"
	"fmt"
	"slices"

	"mochibot/pkg/interaction"
)

const (
	statsStatSelectionID = "stats_stat_selection"
	statsTypeSelectionID = "stats_type_selection"
)

// statTypes lists, per countable stat, the breakdowns a stat channel can
// show.
var statTypes = []struct {
	stat  string
	types []string
}{
	{"members", []string{"all", "user", "bot"}},
	{"channels", []string{"all", "text", "voice", "stage", "category", "announcement"}},
	{"stickers", []string{"all", "standard", "guild"}},
	{"emojis", []string{"all", "static", "animated"}},
	{"roles", []string{"all"}},
}

func typesOf(stat string) ([]string, bool) {
	for _, st := range statTypes {
		if st.stat == stat {
			return st.types, true
		}
	}
	return nil, false
}

type stats struct {
	community Community
}

func newStatsCommand(c Community) *Command {
	s := &stats{community: c}
	return &Command{
		Name:        "stats",
		Category:    "Community",
		Description: "Server Stats",
		Usage:       "stats",
		Examples:    []string{"stats"},
		Handler:     s.handle,
		AdminOnly:   true,
	}
}

func (s *stats) handle(_ context.Context, req CommandRequest) (CommandResponse, error) {
	if req.GuildID == "" {
		return CommandResponse{Render: errorRender("This command can only be used in a server.")}, nil
	}

	options := make([]interaction.SelectOption, 0, len(statTypes))
	for _, st := range statTypes {
		options = append(options, interaction.SelectOption{Label: st.stat, Value: st.stat})
	}

	return CommandResponse{
		Render: interaction.Render{
			Embeds:     []interaction.Embed{composeEmbed("Server Stats", "Please select what stat you want to show")},
			Components: []interaction.Row{selectRow(statsStatSelectionID, "Select stat", options), interaction.ExitRow()},
		},
		Session: &PendingSession{Continuation: interaction.Narrowing[string]{
			Parse: parseStat,
			Then:  s.pickType,
		}},
	}, nil
}

func parseStat(ev interaction.Event) (string, error) {
	stat := ev.Value()
	if _, ok := typesOf(stat); !ok {
		return "", fmt.Errorf("%w: unknown stat %q", interaction.ErrMalformedValue, stat)
	}
	return stat, nil
}

func (s *stats) pickType(_ context.Context, stat string, _ interaction.Event, _ interaction.RenderContext) (interaction.Outcome, error) {
	types, _ := typesOf(stat)
	options := make([]interaction.SelectOption, 0, len(types))
	for _, t := range types {
		options = append(options, interaction.SelectOption{Label: t, Value: interaction.EncodeValue(t, stat)})
	}

	render := interaction.Render{
		Embeds:     []interaction.Embed{composeEmbed("Server Stats", "Please select what type you want to show")},
		Components: []interaction.Row{selectRow(statsTypeSelectionID, "Select type", options), interaction.ExitRow()},
	}
	return interaction.Next(render, interaction.Narrowing[[2]string]{
		Parse: parseStatType,
		Then:  s.count,
	}), nil
}

func parseStatType(ev interaction.Event) ([2]string, error) {
	parts, err := interaction.DecodeValue(ev, 2)
	if err != nil {
		return [2]string{}, err
	}
	types, ok := typesOf(parts[1])
	if !ok || !slices.Contains(types, parts[0]) {
		return [2]string{}, fmt.Errorf("%w: unknown stat type %q", interaction.ErrMalformedValue, ev.Value())
	}
	return [2]string{parts[0], parts[1]}, nil
}

func (s *stats) count(ctx context.Context, pick [2]string, ev interaction.Event, _ interaction.RenderContext) (interaction.Outcome, error) {
	typ, stat := pick[0], pick[1]
	if err := s.community.CreateStatChannel(ctx, ev.GuildID, interaction.EncodeValue(typ, stat)); err != nil {
		return nil, err
	}
	return interaction.Done(interaction.Render{
		Embeds: []interaction.Embed{composeEmbed("Server Stats",
			fmt.Sprintf("Successfully count %s %s", typ, stat))},
	}), nil
}
