package commands

import (
	"context"
	"strings"
	"testing"

	"mochibot/pkg/interaction"
)

func TestStatusHandler_IncludesRuntimeAndVersionInfo(t *testing.T) {
	store := interaction.NewStore()
	resp, err := statusHandler(store)(context.Background(), CommandRequest{Channel: "discord"})
	if err != nil {
		t.Fatalf("statusHandler returned error: %v", err)
	}

	required := []string{
		"Channel: discord",
		"Status: 🟢 Online",
		"Version:",
		"OS:",
		"Go:",
		"Uptime:",
		"Memory:",
		"Open sessions: 0",
	}
	for _, want := range required {
		if !strings.Contains(resp.Content, want) {
			t.Fatalf("expected status output to contain %q, got:\n%s", want, resp.Content)
		}
	}
}

func TestHelpListsCommandsByCategory(t *testing.T) {
	h := newHarness()

	resp, err := helpHandler(h.registry)(context.Background(), CommandRequest{})
	if err != nil {
		t.Fatalf("help returned error: %v", err)
	}
	if len(resp.Render.Embeds) != 1 {
		t.Fatalf("expected one embed, got %d", len(resp.Render.Embeds))
	}

	fields := map[string]string{}
	for _, f := range resp.Render.Embeds[0].Fields {
		fields[f.Name] = f.Value
	}
	if !strings.Contains(fields["Defi"], "`$ticker`") || !strings.Contains(fields["Defi"], "`$tokens`") {
		t.Fatalf("Defi category missing commands: %q", fields["Defi"])
	}
	if !strings.Contains(fields["Community"], "`$stats`") {
		t.Fatalf("Community category missing stats: %q", fields["Community"])
	}
}

func TestHelpForCommand(t *testing.T) {
	h := newHarness()

	resp, err := helpHandler(h.registry)(context.Background(), CommandRequest{Args: "tk"})
	if err != nil {
		t.Fatalf("help returned error: %v", err)
	}
	embed := resp.Render.Embeds[0]
	if embed.Title != "$tokens" {
		t.Fatalf("expected alias to resolve to tokens, got %q", embed.Title)
	}
	var usage, aliases string
	for _, f := range embed.Fields {
		switch f.Name {
		case "Usage":
			usage = f.Value
		case "Aliases":
			aliases = f.Value
		}
	}
	if usage != "`$tokens`" {
		t.Fatalf("unexpected usage %q", usage)
	}
	if aliases != "token, tkn, tk" {
		t.Fatalf("unexpected aliases %q", aliases)
	}
}

func TestHelpUnknownCommand(t *testing.T) {
	h := newHarness()

	resp, err := helpHandler(h.registry)(context.Background(), CommandRequest{Args: "bogus"})
	if err != nil {
		t.Fatalf("help returned error: %v", err)
	}
	if !strings.Contains(resp.Render.Embeds[0].Description, "Unknown command `bogus`") {
		t.Fatalf("unexpected description %q", resp.Render.Embeds[0].Description)
	}
}
