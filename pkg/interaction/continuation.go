package interaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RenderContext is what a Continuation knows about the session it runs in.
type RenderContext struct {
	Session    Session
	Now        time.Time
	DefaultTTL time.Duration
	// InvocationID correlates log lines of one dispatch.
	InvocationID string
}

// Continuation handles the next event matched to a session. It must not
// touch the Store; it returns the desired effect as an Outcome.
type Continuation interface {
	Handle(ctx context.Context, ev Event, rc RenderContext) (Outcome, error)
}

// ContinuationFunc adapts a function to Continuation.
type ContinuationFunc func(ctx context.Context, ev Event, rc RenderContext) (Outcome, error)

func (f ContinuationFunc) Handle(ctx context.Context, ev Event, rc RenderContext) (Outcome, error) {
	return f(ctx, ev, rc)
}

// Canceler is implemented by continuations that want a custom render when
// the user presses the exit control.
type Canceler interface {
	CancelRender(ev Event) Render
}

// Narrowing turns one selection into the next step of a conversation:
// Parse decodes the event, Then decides the outcome, usually Chained with
// another Narrowing or a Refinement.
type Narrowing[T any] struct {
	Parse func(ev Event) (T, error)
	Then  func(ctx context.Context, choice T, ev Event, rc RenderContext) (Outcome, error)
}

func (n Narrowing[T]) Handle(ctx context.Context, ev Event, rc RenderContext) (Outcome, error) {
	choice, err := n.Parse(ev)
	if err != nil {
		return nil, fmt.Errorf("parse selection: %w", err)
	}
	return n.Then(ctx, choice, ev, rc)
}

// Refinement re-renders one artifact in place on every pick. The session
// keeps its key and stays on the same Refinement until it expires or the
// user exits.
type Refinement[T any] struct {
	Parse func(ev Event) (T, error)
	Apply func(ctx context.Context, choice T, rc RenderContext) (Render, error)
	// TTL of each renewed session. Zero uses the router's default.
	TTL time.Duration
	// OnCancel, if set, renders the exit state.
	OnCancel func(ev Event) Render
}

func (r Refinement[T]) Handle(ctx context.Context, ev Event, rc RenderContext) (Outcome, error) {
	choice, err := r.Parse(ev)
	if err != nil {
		return nil, fmt.Errorf("parse selection: %w", err)
	}
	render, err := r.Apply(ctx, choice, rc)
	if err != nil {
		return nil, err
	}
	return Chained{Render: render, Next: r, TTL: r.TTL}, nil
}

func (r Refinement[T]) CancelRender(ev Event) Render {
	if r.OnCancel == nil {
		return closedRender()
	}
	return r.OnCancel(ev)
}

// ValueSeparator joins the parts of an encoded select option value.
const ValueSeparator = "_"

// ErrMalformedValue is returned by DecodeValue.
var ErrMalformedValue = errors.New("malformed selection value")

// EncodeValue joins parts into a select option value.
func EncodeValue(parts ...string) string {
	return strings.Join(parts, ValueSeparator)
}

// DecodeValue splits the event's first value into exactly n parts. The
// last part keeps any further separators.
func DecodeValue(ev Event, n int) ([]string, error) {
	raw := ev.Value()
	if raw == "" {
		return nil, ErrMalformedValue
	}
	parts := strings.SplitN(raw, ValueSeparator, n)
	if len(parts) != n {
		return nil, fmt.Errorf("%w: %q has %d parts, want %d", ErrMalformedValue, raw, len(parts), n)
	}
	return parts, nil
}
