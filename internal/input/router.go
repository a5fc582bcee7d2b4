package input

import (
	"fmt"
	"sync"
	"time"

	"github.com/dshills/keypilot/internal/host"
	"github.com/dshills/keypilot/internal/input/key"
	"github.com/dshills/keypilot/internal/notify"
	"github.com/dshills/keypilot/internal/scroll"
)

// DefaultSequenceTimeout clears a lone sequence starter when the
// second key does not arrive in time.
const DefaultSequenceTimeout = 500 * time.Millisecond

// Config carries the router's tunables.
type Config struct {
	SequenceTimeout time.Duration
}

// DefaultRouterConfig returns the stock router configuration.
func DefaultRouterConfig() Config {
	return Config{SequenceTimeout: DefaultSequenceTimeout}
}

// SubMode is a modal key consumer. At most one sub-mode is active at a
// time; the router checks them in fixed priority order.
type SubMode interface {
	Active() bool
	HandleKey(ev key.Event) bool
	Stop()
}

// Hinter is the hint engine as the router drives it.
type Hinter interface {
	SubMode
	Start(newContext bool, doc host.DocumentView) bool
}

// Marker is the mark store's pending sub-mode.
type Marker interface {
	SubMode
	StartCreate()
	StartJump()
}

// Searcher is the find overlay. Active reports input focus; an open
// overlay with a blurred input still owns n/N/Escape.
type Searcher interface {
	SubMode
	Open(path string)
	IsOpen() bool
	Next()
	Prev()
	HandoffToEditable(doc host.DocumentView)
}

// Deps are the router's collaborators. Resolver, Executor, and Driver
// are required; the rest may be nil and their bindings degrade to
// no-ops.
type Deps struct {
	Resolver  host.Resolver
	Executor  host.Executor
	Clipboard host.Clipboard
	Driver    *scroll.Driver
	Notices   *notify.Hub
	Hints     Hinter
	Marks     Marker
	Search    Searcher
}

// Router owns the keystroke pipeline.
type Router struct {
	mu        sync.Mutex
	cfg       Config
	buffer    rune
	bufferGen uint64
	timer     *time.Timer

	deps     Deps
	bindings *Bindings
	actions  map[string]func(ev key.Event)
}

// NewRouter creates a router with the default binding table.
func NewRouter(cfg Config, deps Deps) *Router {
	if cfg.SequenceTimeout <= 0 {
		cfg.SequenceTimeout = DefaultSequenceTimeout
	}
	rt := &Router{cfg: cfg, deps: deps, bindings: DefaultBindings()}
	rt.registerActions()
	return rt
}

// SetSequenceTimeout updates the sequence timeout, for live settings
// reload.
func (rt *Router) SetSequenceTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	rt.mu.Lock()
	rt.cfg.SequenceTimeout = d
	rt.mu.Unlock()
}

// normalizeKeys parses a binding spec ("gg", "g g", "<<") into
// the dispatcher's rune identity form. The binding tables key on
// normalized runes, so sequences carrying a modifier or a special key
// have no dispatchable identity and are rejected here.
func normalizeKeys(spec string) (string, error) {
	seq, err := key.ParseSequence(spec)
	if err != nil {
		return "", err
	}
	norm, ok := seq.AsString()
	if !ok {
		return "", fmt.Errorf("key spec %q uses a modified or special key and cannot be bound", spec)
	}
	return norm, nil
}

// Rebind points a key spec at a named action. Used by keybinding
// overrides; unknown action names are rejected.
func (rt *Router) Rebind(keys, action string) error {
	rt.mu.Lock()
	_, ok := rt.actions[action]
	rt.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown action %q", action)
	}
	norm, err := normalizeKeys(keys)
	if err != nil {
		return err
	}
	return rt.bindings.Rebind(norm, action)
}

// BindCustom binds a key spec to a caller-supplied function. Used by
// the script hook for user-defined commands.
func (rt *Router) BindCustom(keys string, fn func()) error {
	norm, err := normalizeKeys(keys)
	if err != nil {
		return err
	}
	name := "custom." + norm
	rt.mu.Lock()
	rt.actions[name] = func(key.Event) { fn() }
	rt.mu.Unlock()
	if err := rt.bindings.Rebind(norm, name); err != nil {
		rt.mu.Lock()
		delete(rt.actions, name)
		rt.mu.Unlock()
		return err
	}
	return nil
}

// ActionNames returns the names Rebind accepts.
func (rt *Router) ActionNames() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	names := make([]string, 0, len(rt.actions))
	for name := range rt.actions {
		names = append(names, name)
	}
	return names
}

// HandleKeyDown dispatches one keydown. A true return means the host
// must suppress its own handling.
func (rt *Router) HandleKeyDown(ev key.Event) bool {
	// An active sub-mode owns the whole event.
	for _, m := range []SubMode{rt.deps.Hints, rt.deps.Marks, rt.deps.Search} {
		if m != nil && m.Active() {
			return m.HandleKey(ev)
		}
	}

	// Typing in editable fields and unfocused windows passes through.
	if rt.deps.Resolver.EditableFocused() || rt.deps.Resolver.ActiveSurface() == nil {
		rt.clearBuffer()
		return false
	}

	r := ev.Normalized()

	// A pending sequence starter claims the next identifiable key
	// before anything else can. Non-rune keys clear the buffer and
	// fall through, so Escape still reaches a blurred overlay.
	rt.mu.Lock()
	pending := rt.buffer
	if pending != 0 {
		rt.clearBufferLocked()
	}
	rt.mu.Unlock()
	if pending != 0 && r != 0 {
		if name, ok := rt.bindings.Pair(pending, r); ok {
			rt.run(name, ev)
		}
		// Unknown two-key sequences are swallowed.
		return true
	}

	// Committed search: overlay open, input blurred.
	if s := rt.deps.Search; s != nil && s.IsOpen() {
		switch {
		case ev.IsEscape():
			s.Stop()
			return true
		case r == 'n':
			s.Next()
			return true
		case r == 'N':
			s.Prev()
			return true
		}
	}

	if r == 0 {
		return false
	}

	if rt.bindings.IsStarter(r) {
		rt.armBuffer(r)
		return true
	}

	if name, ok := rt.bindings.Single(r); ok {
		rt.run(name, ev)
		return true
	}
	return false
}

// HandleKeyUp releases held-key momentum. Nothing else consumes
// keyups.
func (rt *Router) HandleKeyUp(ev key.Event) {
	if rt.deps.Driver != nil && ev.IsRune() {
		rt.deps.Driver.ReleaseKey(ev.Rune)
	}
}

// Pending returns the buffered sequence starter, 0 when empty.
func (rt *Router) Pending() rune {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.buffer
}

// Stop cancels the sequence buffer and every sub-mode.
func (rt *Router) Stop() {
	rt.clearBuffer()
	for _, m := range []SubMode{rt.deps.Hints, rt.deps.Marks, rt.deps.Search} {
		if m != nil {
			m.Stop()
		}
	}
}

func (rt *Router) armBuffer(r rune) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.buffer = r
	rt.bufferGen++
	gen := rt.bufferGen
	if rt.timer != nil {
		rt.timer.Stop()
	}
	rt.timer = time.AfterFunc(rt.cfg.SequenceTimeout, func() {
		rt.mu.Lock()
		defer rt.mu.Unlock()
		// A newer buffer owns the slot now.
		if rt.bufferGen == gen {
			rt.buffer = 0
		}
	})
}

func (rt *Router) clearBuffer() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.clearBufferLocked()
}

func (rt *Router) clearBufferLocked() {
	rt.buffer = 0
	rt.bufferGen++
	if rt.timer != nil {
		rt.timer.Stop()
		rt.timer = nil
	}
}

func (rt *Router) run(name string, ev key.Event) {
	rt.mu.Lock()
	fn, ok := rt.actions[name]
	rt.mu.Unlock()
	if ok {
		fn(ev)
	}
}
