package interaction

import "time"

// Outcome is what a Continuation asks the Router to do next. The concrete
// types are Terminal, Chained and Cancelled.
type Outcome interface {
	outcome()
}

// Terminal applies Render and ends the session.
type Terminal struct {
	Render Render
	Target Target
}

// Chained applies Render and installs Next as the session's continuation.
type Chained struct {
	Render Render
	Target Target
	Next   Continuation
	// TTL of the next session. Zero uses the router's default.
	TTL time.Duration
	// Anchor controls which key Next is stored under.
	Anchor Anchor
	// Key is used when Anchor is AnchorKey.
	Key ScopeKey
}

// Cancelled applies Render, if any, and ends the session.
type Cancelled struct {
	Render *Render
	Target Target
}

func (Terminal) outcome()  {}
func (Chained) outcome()   {}
func (Cancelled) outcome() {}

// Anchor selects the key of a chained session.
type Anchor int

const (
	// AnchorKeep stores the next session under the current key.
	AnchorKeep Anchor = iota
	// AnchorRendered moves the session to the message the render produced.
	// Falls back to AnchorKeep when the renderer reports no message.
	AnchorRendered
	// AnchorKey moves the session to Chained.Key.
	AnchorKey
)

// Done ends the session after editing the original message.
func Done(r Render) Outcome {
	return Terminal{Render: r}
}

// Next edits the original message and keeps the session open with c.
func Next(r Render, c Continuation) Outcome {
	return Chained{Render: r, Next: c}
}

// Cancel ends the session, editing the original message with r.
func Cancel(r Render) Outcome {
	return Cancelled{Render: &r}
}
