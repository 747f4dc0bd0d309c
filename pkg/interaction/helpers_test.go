package interaction

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type renderCall struct {
	Event  Event
	Target Target
	Render Render
}

type recordingRenderer struct {
	mu    sync.Mutex
	calls []renderCall
	ref   MessageRef
}

func (r *recordingRenderer) ApplyRender(ctx context.Context, ev Event, target Target, render Render) (MessageRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, renderCall{Event: ev, Target: target, Render: render})
	return r.ref, nil
}

func (r *recordingRenderer) all() []renderCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]renderCall(nil), r.calls...)
}

func (r *recordingRenderer) last() renderCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return renderCall{}
	}
	return r.calls[len(r.calls)-1]
}

// step is a continuation with an identity, so tests can tell which one
// the router ran.
type step struct {
	name  string
	calls atomic.Int32
	fn    func(ctx context.Context, ev Event) (Outcome, error)
}

func newStep(name string, fn func(ctx context.Context, ev Event) (Outcome, error)) *step {
	return &step{name: name, fn: fn}
}

func (s *step) Handle(ctx context.Context, ev Event, rc RenderContext) (Outcome, error) {
	s.calls.Add(1)
	return s.fn(ctx, ev)
}

func terminalStep(name string) *step {
	return newStep(name, func(context.Context, Event) (Outcome, error) {
		return Done(Render{Content: name}), nil
	})
}

var testKey = KeyFor("user-u", "guild-g", "chan-c", "msg-m")

func eventFor(key ScopeKey, kind EventKind, values ...string) Event {
	return Event{
		Kind:      kind,
		UserID:    key.UserID,
		GuildID:   key.GuildID,
		ChannelID: key.ChannelID,
		MessageID: key.MessageID,
		Values:    values,
	}
}
