package interaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mochibot/pkg/logger"
)

// Errors reported in Result.Err for events that run no continuation.
var (
	// ErrNotFound means no live session matches the event.
	ErrNotFound = errors.New("interaction: session not found")
	// ErrUnauthorized means the session at the event's location belongs to
	// another user and is not shared.
	ErrUnauthorized = errors.New("interaction: session belongs to another user")
	// ErrBusy means the session's continuation was still running.
	ErrBusy = errors.New("interaction: session is busy")
)

// ContinuationError wraps a failure raised by a continuation, including a
// recovered panic.
type ContinuationError struct {
	Key     ScopeKey
	Command string
	Panic   any
	Err     error
}

func (e *ContinuationError) Error() string {
	name := e.Command
	if name == "" {
		name = "continuation"
	}
	return fmt.Sprintf("%s at %s: %v", name, e.Key, e.Err)
}

func (e *ContinuationError) Unwrap() error {
	return e.Err
}

// BusyPolicy decides what happens to an event whose key already has a
// continuation running.
type BusyPolicy int32

const (
	// BusyBlock queues the event until the running continuation finishes
	// or the event's context ends.
	BusyBlock BusyPolicy = iota
	// BusyReject answers the event with the busy notice.
	BusyReject
)

// ParseBusyPolicy parses "block" or "reject". Empty means block.
func ParseBusyPolicy(s string) (BusyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "block":
		return BusyBlock, nil
	case "reject":
		return BusyReject, nil
	default:
		return BusyBlock, fmt.Errorf("unknown busy policy %q", s)
	}
}

func (p BusyPolicy) String() string {
	if p == BusyReject {
		return "reject"
	}
	return "block"
}

// Status is the result of a dispatch.
type Status int

const (
	StatusHandled Status = iota
	StatusCancelled
	StatusNotFound
	StatusUnauthorized
	StatusBusy
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusHandled:
		return "handled"
	case StatusCancelled:
		return "cancelled"
	case StatusNotFound:
		return "not_found"
	case StatusUnauthorized:
		return "unauthorized"
	case StatusBusy:
		return "busy"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes what Dispatch did.
type Result struct {
	Status Status
	// Key and Generation identify the session the event ran against, or
	// the successor session after a Chained outcome.
	Key        ScopeKey
	Generation uint64
	Outcome    Outcome
	// Stale is set when the session was replaced or removed while the
	// continuation ran, so the outcome's store effect was dropped.
	Stale        bool
	InvocationID string
	Err          error
}

// Notices are the ephemeral texts sent for events that run no
// continuation.
type Notices struct {
	NotFound     string
	Unauthorized string
	Busy         string
	Failure      string
}

// DefaultNotices returns the stock notice texts.
func DefaultNotices() Notices {
	return Notices{
		NotFound:     "This interaction is no longer available.",
		Unauthorized: "This is not your interaction.",
		Busy:         "Still working on your last selection, try again in a moment.",
		Failure:      "Something went wrong, please try again later.",
	}
}

func (n Notices) text(s Status) string {
	switch s {
	case StatusNotFound:
		return n.NotFound
	case StatusUnauthorized:
		return n.Unauthorized
	case StatusBusy:
		return n.Busy
	case StatusFailed:
		return n.Failure
	default:
		return ""
	}
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithBusyPolicy sets the initial busy policy. The default is BusyBlock.
func WithBusyPolicy(p BusyPolicy) RouterOption {
	return func(r *Router) { r.policy.Store(int32(p)) }
}

// WithDefaultTTL sets the lifetime of chained sessions that do not set one.
func WithDefaultTTL(ttl time.Duration) RouterOption {
	return func(r *Router) { r.ttl.Store(int64(ttl)) }
}

// WithMetrics records dispatches on m. A nil m disables metrics.
func WithMetrics(m *Metrics) RouterOption {
	return func(r *Router) { r.metrics = m }
}

// WithNotices replaces the default notice texts.
func WithNotices(n Notices) RouterOption {
	return func(r *Router) { r.notices = n }
}

// Router matches UI events to sessions and applies continuation outcomes.
// Events for one key run one at a time; events for different keys run
// concurrently. No global lock is held while a continuation runs.
type Router struct {
	store   *Store
	log     *logger.Logger
	metrics *Metrics
	notices Notices

	policy atomic.Int32
	ttl    atomic.Int64

	mu    sync.Mutex
	locks map[ScopeKey]*keyLock
}

// NewRouter creates a Router over store.
func NewRouter(store *Store, log *logger.Logger, opts ...RouterOption) *Router {
	if log == nil {
		log = logger.NewNop()
	}
	r := &Router{
		store:   store,
		log:     log,
		notices: DefaultNotices(),
		locks:   make(map[ScopeKey]*keyLock),
	}
	r.ttl.Store(int64(5 * time.Minute))
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the router's session store.
func (r *Router) Store() *Store {
	return r.store
}

// SetBusyPolicy changes the busy policy for subsequent events.
func (r *Router) SetBusyPolicy(p BusyPolicy) {
	r.policy.Store(int32(p))
}

// BusyPolicy returns the current busy policy.
func (r *Router) BusyPolicy() BusyPolicy {
	return BusyPolicy(r.policy.Load())
}

// SetDefaultTTL changes the lifetime used by chained sessions that do not
// pick their own. Non-positive values are ignored.
func (r *Router) SetDefaultTTL(ttl time.Duration) {
	if ttl > 0 {
		r.ttl.Store(int64(ttl))
	}
}

// DefaultTTL returns the lifetime used by chained sessions.
func (r *Router) DefaultTTL() time.Duration {
	return time.Duration(r.ttl.Load())
}

// Register opens a session for a command's first response.
func (r *Router) Register(key ScopeKey, c Continuation, ttl time.Duration, opts ...SessionOption) (Handle, error) {
	h, err := r.store.Register(key, c, ttl, opts...)
	if err != nil {
		return Handle{}, err
	}
	r.log.Debug("Session registered",
		zap.String("key", key.String()),
		zap.Uint64("generation", h.Generation),
		zap.Time("expires_at", h.ExpiresAt))
	return h, nil
}

// Dispatch handles one UI event. Renders go through out; failures to
// render are logged and do not change the result.
func (r *Router) Dispatch(ctx context.Context, ev Event, out Renderer) Result {
	id := uuid.NewString()
	log := r.log.WithFields(
		zap.String("invocation_id", id),
		zap.String("kind", ev.Kind.String()),
		zap.String("user_id", ev.UserID),
		zap.String("channel_id", ev.ChannelID),
		zap.String("message_id", ev.MessageID))

	var res Result
	if ev.Kind == KindCancel {
		res = r.cancel(ctx, ev, out, log)
	} else {
		res = r.dispatch(ctx, ev, out, id, log)
	}
	res.InvocationID = id
	r.metrics.observeDispatch(ev.Kind, res.Status)

	log.Debug("Event dispatched",
		zap.String("status", res.Status.String()),
		zap.Bool("stale", res.Stale))
	return res
}

func (r *Router) dispatch(ctx context.Context, ev Event, out Renderer, id string, log *logger.Logger) Result {
	sess, status := r.resolve(ev)
	if status != StatusHandled {
		return r.reject(ctx, ev, out, status, nil, log)
	}

	sess, release, status, err := r.claim(ctx, ev, sess)
	if status != StatusHandled {
		return r.reject(ctx, ev, out, status, err, log)
	}
	defer release()

	log = log.WithFields(
		zap.String("key", sess.Key.String()),
		zap.String("command", sess.Command),
		zap.Uint64("generation", sess.Generation))

	started := time.Now()
	outcome, err := r.invoke(ctx, ev, sess, id)
	r.metrics.observeContinuation(sess.Command, time.Since(started))
	if err != nil {
		r.store.RemoveIf(sess.Key, sess.Generation)
		log.Error("Continuation failed", zap.Error(err))
		r.notify(ctx, ev, out, StatusFailed, log)
		return Result{Status: StatusFailed, Key: sess.Key, Generation: sess.Generation, Err: err}
	}

	return r.apply(ctx, ev, out, sess, outcome, log)
}

// resolve finds the session an event targets: the user's own session
// anchored to the event's message, then the user's unanchored session in
// the channel, then a shared session of another user at either location.
// Another user's unshared session answers Unauthorized only when it sits
// at the event's most specific location; otherwise the event is NotFound.
func (r *Router) resolve(ev Event) (Session, Status) {
	candidates := candidateKeys(ev)
	for _, key := range candidates {
		if sess, ok := r.store.Lookup(key); ok {
			return sess, StatusHandled
		}
	}

	// Only a session on the event's own message (or, without a message,
	// in its channel) makes the event someone else's.
	foreign := false
	for i, key := range candidates {
		for _, sess := range r.store.AtLocation(key.Location()) {
			if sess.Shared {
				return sess, StatusHandled
			}
			if i == 0 {
				foreign = true
			}
		}
	}
	if foreign {
		return Session{}, StatusUnauthorized
	}
	return Session{}, StatusNotFound
}

// claim takes the key lock for sess and re-reads the session under it, so
// an event that waited behind another runs the successor continuation.
func (r *Router) claim(ctx context.Context, ev Event, sess Session) (Session, func(), Status, error) {
	const attempts = 3
	for i := 0; i < attempts; i++ {
		release, err := r.acquire(ctx, sess.Key)
		if err != nil {
			return Session{}, nil, StatusBusy, err
		}

		current, ok := r.store.Lookup(sess.Key)
		if ok && (current.Key.UserID == ev.UserID || current.Shared) {
			return current, release, StatusHandled, nil
		}
		release()

		next, status := r.resolve(ev)
		if status != StatusHandled {
			return Session{}, nil, status, nil
		}
		sess = next
	}
	return Session{}, nil, StatusNotFound, nil
}

func (r *Router) acquire(ctx context.Context, key ScopeKey) (func(), error) {
	r.mu.Lock()
	l := r.locks[key]
	if l == nil {
		l = &keyLock{sem: make(chan struct{}, 1)}
		r.locks[key] = l
	}
	l.refs++
	r.mu.Unlock()

	release := func() {
		<-l.sem
		r.unref(key, l)
	}

	if r.BusyPolicy() == BusyReject {
		select {
		case l.sem <- struct{}{}:
			return release, nil
		default:
			r.unref(key, l)
			return nil, ErrBusy
		}
	}

	select {
	case l.sem <- struct{}{}:
		return release, nil
	case <-ctx.Done():
		r.unref(key, l)
		return nil, fmt.Errorf("%w: %w", ErrBusy, ctx.Err())
	}
}

func (r *Router) unref(key ScopeKey, l *keyLock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(r.locks, key)
	}
}

func (r *Router) invoke(ctx context.Context, ev Event, sess Session, id string) (outcome Outcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			outcome = nil
			err = &ContinuationError{Key: sess.Key, Command: sess.Command, Panic: p, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	rc := RenderContext{
		Session:      sess,
		Now:          r.store.Now(),
		DefaultTTL:   r.DefaultTTL(),
		InvocationID: id,
	}
	outcome, err = sess.Continuation.Handle(ctx, ev, rc)
	if err != nil {
		return nil, &ContinuationError{Key: sess.Key, Command: sess.Command, Err: err}
	}
	switch o := outcome.(type) {
	case nil:
		return nil, &ContinuationError{Key: sess.Key, Command: sess.Command, Err: errors.New("no outcome")}
	case Chained:
		if o.Next == nil {
			return nil, &ContinuationError{Key: sess.Key, Command: sess.Command, Err: ErrNilContinuation}
		}
	}
	return outcome, nil
}

func (r *Router) apply(ctx context.Context, ev Event, out Renderer, sess Session, outcome Outcome, log *logger.Logger) Result {
	res := Result{Status: StatusHandled, Key: sess.Key, Generation: sess.Generation, Outcome: outcome}

	switch o := outcome.(type) {
	case Terminal:
		r.render(ctx, ev, out, o.Target, o.Render, log)
		res.Stale = !r.store.RemoveIf(sess.Key, sess.Generation)

	case Chained:
		ref := r.render(ctx, ev, out, o.Target, o.Render, log)
		next := sess.Key
		switch o.Anchor {
		case AnchorRendered:
			if ref.MessageID != "" {
				next = sess.Key.Anchor(ref.MessageID)
				if ref.ChannelID != "" {
					next.ChannelID = ref.ChannelID
				}
			}
		case AnchorKey:
			next = o.Key
		}
		ttl := o.TTL
		if ttl <= 0 {
			ttl = r.DefaultTTL()
		}
		opts := []SessionOption{Command(sess.Command)}
		if sess.Shared {
			opts = append(opts, Shared())
		}
		h, ok, err := r.store.ReplaceIf(sess.Key, sess.Generation, next, o.Next, ttl, opts...)
		if err != nil {
			log.Error("Failed to chain session", zap.Error(err))
			r.store.RemoveIf(sess.Key, sess.Generation)
			res.Status, res.Err = StatusFailed, err
			return res
		}
		res.Stale = !ok
		if ok {
			res.Key, res.Generation = h.Key, h.Generation
		}

	case Cancelled:
		render := closedRender()
		if o.Render != nil {
			render = *o.Render
		}
		r.render(ctx, ev, out, o.Target, render, log)
		res.Status = StatusCancelled
		res.Stale = !r.store.RemoveIf(sess.Key, sess.Generation)
	}

	if res.Stale {
		log.Debug("Session replaced while continuation ran, outcome discarded")
	}
	return res
}

// cancel handles the exit control. It skips the key lock so it is never
// stuck behind a running continuation; that continuation's outcome then
// finds its generation gone and is discarded.
func (r *Router) cancel(ctx context.Context, ev Event, out Renderer, log *logger.Logger) Result {
	sess, status := r.resolve(ev)
	if status != StatusHandled {
		return r.reject(ctx, ev, out, status, nil, log)
	}

	r.store.Remove(sess.Key)
	render := r.cancelRender(sess, ev, log)
	r.render(ctx, ev, out, TargetOriginal, render, log)

	log.Info("Session cancelled",
		zap.String("key", sess.Key.String()),
		zap.String("command", sess.Command))
	return Result{
		Status:     StatusCancelled,
		Key:        sess.Key,
		Generation: sess.Generation,
		Outcome:    Cancelled{Render: &render},
	}
}

func (r *Router) cancelRender(sess Session, ev Event, log *logger.Logger) (render Render) {
	c, ok := sess.Continuation.(Canceler)
	if !ok {
		return closedRender()
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error("Cancel render panicked", zap.Any("panic", p))
			render = closedRender()
		}
	}()
	return c.CancelRender(ev)
}

func (r *Router) reject(ctx context.Context, ev Event, out Renderer, status Status, err error, log *logger.Logger) Result {
	if err == nil {
		switch status {
		case StatusNotFound:
			err = ErrNotFound
		case StatusUnauthorized:
			err = ErrUnauthorized
		case StatusBusy:
			err = ErrBusy
		}
	}
	r.notify(ctx, ev, out, status, log)
	return Result{Status: status, Err: err}
}

func (r *Router) notify(ctx context.Context, ev Event, out Renderer, status Status, log *logger.Logger) {
	text := r.notices.text(status)
	if text == "" {
		return
	}
	// The event's context may be what ended the wait; the notice still goes out.
	r.render(context.WithoutCancel(ctx), ev, out, TargetEphemeral, Notice(text), log)
}

func (r *Router) render(ctx context.Context, ev Event, out Renderer, target Target, render Render, log *logger.Logger) MessageRef {
	if out == nil {
		return MessageRef{}
	}
	ref, err := out.ApplyRender(ctx, ev, target, render)
	if err != nil {
		log.Warn("Failed to apply render", zap.String("target", target.String()), zap.Error(err))
		return MessageRef{}
	}
	return ref
}
