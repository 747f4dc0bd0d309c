package commands

import (
	"context"
	"testing"
)

func noop(context.Context, CommandRequest) (CommandResponse, error) {
	return CommandResponse{}, nil
}

func TestRegistryParse(t *testing.T) {
	r := NewRegistry("$")

	tests := []struct {
		text string
		name string
		args string
	}{
		{"$ticker eth/eur -d", "ticker", "eth/eur -d"},
		{"  $HELP  ", "help", ""},
		{"ticker eth", "", ""},
		{"$", "", ""},
	}
	for _, tt := range tests {
		name, args := r.Parse(tt.text)
		if name != tt.name || args != tt.args {
			t.Errorf("Parse(%q) = (%q, %q), want (%q, %q)", tt.text, name, args, tt.name, tt.args)
		}
	}
}

func TestRegistryAliases(t *testing.T) {
	r := NewRegistry("$")
	if err := r.Register(&Command{Name: "tokens", Aliases: []string{"tk"}, Handler: noop}); err != nil {
		t.Fatalf("register: %v", err)
	}

	cmd, ok := r.Get("TK")
	if !ok || cmd.Name != "tokens" {
		t.Fatalf("alias lookup failed: %v %v", cmd, ok)
	}
	if !r.IsCommand("$tk") {
		t.Fatal("expected $tk to be a command")
	}
	if r.IsCommand("$nope") {
		t.Fatal("expected $nope not to be a command")
	}
}

func TestRegistryRejectsConflicts(t *testing.T) {
	r := NewRegistry("")
	if r.Prefix() != "$" {
		t.Fatalf("expected default prefix, got %q", r.Prefix())
	}
	if err := r.Register(&Command{Name: "ticker", Aliases: []string{"tick"}, Handler: noop}); err != nil {
		t.Fatalf("register: %v", err)
	}

	cases := []*Command{
		{Name: "ticker", Handler: noop},
		{Name: "tick", Handler: noop},
		{Name: "other", Aliases: []string{"ticker"}, Handler: noop},
		{Name: "nohandler"},
		{Name: ""},
	}
	for _, c := range cases {
		if err := r.Register(c); err == nil {
			t.Errorf("expected error registering %q", c.Name)
		}
	}
	if len(r.List()) != 1 {
		t.Fatalf("expected one command, got %d", len(r.List()))
	}
}
