// Package commands provides the prefix command system and the commands
// themselves. A command either answers in one shot or opens an interactive
// session that the interaction router continues.
package commands

import (
	"context"
	"strings"
	"time"

	"mochibot/pkg/interaction"
)

// Command represents a prefix command that can be executed.
type Command struct {
	// Name is the command name (without prefix)
	Name string
	// Aliases are alternative names
	Aliases []string
	// Category groups commands in help output
	Category string
	// Description is a short description of what the command does
	Description string
	// Usage shows how to use the command
	Usage string
	// Examples are shown by help <command>
	Examples []string
	// Handler is the function that executes the command
	Handler CommandHandler
	// AdminOnly indicates if only server administrators can use this command
	AdminOnly bool
}

// CommandHandler is a function that handles a command.
type CommandHandler func(ctx context.Context, req CommandRequest) (CommandResponse, error)

// CommandRequest contains information about a command invocation.
type CommandRequest struct {
	// Channel is the platform name (discord, cli)
	Channel string
	// GuildID is empty in direct messages
	GuildID string
	// ChannelID identifies the conversation
	ChannelID string
	// UserID identifies the user who invoked the command
	UserID string
	// Username is the display name of the user
	Username string
	// Command is the command name
	Command string
	// Args are the command arguments (text after the command)
	Args string
	// IsAdmin is set when the user administers the guild
	IsAdmin bool
	// Metadata contains channel-specific metadata
	Metadata map[string]string
	// Raw is the platform message, passed through to the renderer
	Raw any
}

// Fields splits Args on whitespace.
func (r CommandRequest) Fields() []string {
	return strings.Fields(r.Args)
}

// CommandResponse contains the command execution result.
type CommandResponse struct {
	// Content is plain response text, used when Render has none
	Content string
	// Render is the full message body
	Render interaction.Render
	// Ephemeral indicates if the response should only be visible to the user
	Ephemeral bool
	// Session, when set, is registered against the sent message so the
	// user's next selection on it continues the command.
	Session *PendingSession
}

// Message returns the render to send.
func (r CommandResponse) Message() interaction.Render {
	m := r.Render
	if m.Content == "" {
		m.Content = r.Content
	}
	return m
}

// PendingSession is the continuation a command leaves behind.
type PendingSession struct {
	Continuation interaction.Continuation
	// TTL of the session; zero uses the router default
	TTL time.Duration
	// Shared lets other users act on the prompt
	Shared bool
}
