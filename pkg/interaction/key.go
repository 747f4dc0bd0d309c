// Package interaction correlates UI events (menu selections, button presses,
// exit controls) with the pending continuation that should handle them.
//
// A command that needs a follow-up registers a Session under a ScopeKey. When
// the user acts on the rendered prompt the Router derives the same key from
// the event, runs the session's Continuation exclusively for that key and
// applies the Outcome it returns to the Store.
package interaction

import "strings"

// ScopeKey identifies one pending interaction. GuildID is empty in direct
// messages; MessageID is empty until the session is anchored to a rendered
// message.
type ScopeKey struct {
	UserID    string
	GuildID   string
	ChannelID string
	MessageID string
}

// Location is the part of a ScopeKey that does not depend on the user.
type Location struct {
	GuildID   string
	ChannelID string
	MessageID string
}

// KeyFor builds a ScopeKey from raw identifiers.
func KeyFor(userID, guildID, channelID, messageID string) ScopeKey {
	return ScopeKey{
		UserID:    userID,
		GuildID:   guildID,
		ChannelID: channelID,
		MessageID: messageID,
	}
}

// Location drops the user from the key.
func (k ScopeKey) Location() Location {
	return Location{GuildID: k.GuildID, ChannelID: k.ChannelID, MessageID: k.MessageID}
}

// Anchored reports whether the key is bound to a specific message.
func (k ScopeKey) Anchored() bool {
	return k.MessageID != ""
}

// Anchor returns a copy of k bound to messageID.
func (k ScopeKey) Anchor(messageID string) ScopeKey {
	k.MessageID = messageID
	return k
}

// Unanchored returns a copy of k without the message binding.
func (k ScopeKey) Unanchored() ScopeKey {
	k.MessageID = ""
	return k
}

func (k ScopeKey) String() string {
	guild := k.GuildID
	if guild == "" {
		guild = "@dm"
	}
	parts := []string{k.UserID, guild, k.ChannelID}
	if k.MessageID != "" {
		parts = append(parts, k.MessageID)
	}
	return strings.Join(parts, "/")
}

// EventKey is the most specific key an event can target.
func EventKey(ev Event) ScopeKey {
	return KeyFor(ev.UserID, ev.GuildID, ev.ChannelID, ev.MessageID)
}

// candidateKeys lists the keys an event may match, most specific first: the
// session anchored to the event's message, then the user's unanchored
// session in the same channel.
func candidateKeys(ev Event) []ScopeKey {
	exact := EventKey(ev)
	if !exact.Anchored() {
		return []ScopeKey{exact}
	}
	return []ScopeKey{exact, exact.Unanchored()}
}
