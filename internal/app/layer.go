package app

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dshills/keypilot/internal/config"
	"github.com/dshills/keypilot/internal/hint"
	"github.com/dshills/keypilot/internal/host"
	"github.com/dshills/keypilot/internal/input"
	"github.com/dshills/keypilot/internal/input/key"
	"github.com/dshills/keypilot/internal/mark"
	"github.com/dshills/keypilot/internal/notify"
	"github.com/dshills/keypilot/internal/picker"
	"github.com/dshills/keypilot/internal/scroll"
	"github.com/dshills/keypilot/internal/script"
	"github.com/dshills/keypilot/internal/search"
)

// Options configure a Layer. Resolver and Executor are required;
// everything else degrades gracefully when absent.
type Options struct {
	// ConfigDir overrides the default config directory.
	ConfigDir string

	Resolver  host.Resolver
	Navigator host.Navigator
	Executor  host.Executor
	Clipboard host.Clipboard
	Find      host.NativeFind
	Notifier  host.Notifier

	// ApplyZoom receives the content zoom factor after every change.
	ApplyZoom func(factor float64)

	// OnChange fires after any visible state change so the host can
	// repaint its overlays.
	OnChange func()

	Log *Logger
}

// Layer is the assembled navigation layer: one instance per host
// process, shared across windows.
type Layer struct {
	mu      sync.Mutex
	log     *Logger
	hub     *notify.Hub
	store   *config.Store
	driver  *scroll.Driver
	hints   *hint.Engine
	marks   *mark.Store
	search  *search.Overlay
	picker  *picker.Picker
	router  *input.Router
	scripts *script.Engine
	unsubs  []func()
	windows map[string]struct{}
	closed  bool
}

// NewLayer wires every component, loads configuration, starts the
// config watcher, and runs the user's init script.
func NewLayer(opts Options) (*Layer, error) {
	if opts.Resolver == nil || opts.Executor == nil {
		return nil, fmt.Errorf("app: resolver and executor are required")
	}
	log := opts.Log
	if log == nil {
		log = NullLogger
	}

	dir := opts.ConfigDir
	if dir == "" {
		var err error
		dir, err = config.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
	}

	sink := notify.Sink(func(string) {})
	if opts.Notifier != nil {
		sink = opts.Notifier.Notice
	}
	hub := notify.New(sink)

	onChange := opts.OnChange
	if onChange == nil {
		onChange = func() {}
	}

	store := config.NewStore(dir, hub)
	if err := store.Load(); err != nil {
		// Bad config never blocks startup; defaults carry the session.
		log.Warn("config load: %v", err)
		hub.Notice("settings file is invalid; using defaults")
	}
	settings := store.Settings()

	l := &Layer{
		log:     log,
		hub:     hub,
		store:   store,
		windows: make(map[string]struct{}),
	}

	l.driver = scroll.NewDriver(settings.ScrollConfig(), opts.ApplyZoom)
	l.hints = hint.NewEngine(settings.HintAlphabet, hub, onChange)
	l.marks = mark.NewStore(opts.Resolver, opts.Navigator, l.driver, hub)
	l.picker = picker.New(onChange)

	deps := input.Deps{
		Resolver:  opts.Resolver,
		Executor:  opts.Executor,
		Clipboard: opts.Clipboard,
		Driver:    l.driver,
		Notices:   hub,
		Hints:     l.hints,
		Marks:     l.marks,
	}
	if opts.Find != nil {
		l.search = search.NewOverlay(opts.Find, hub, log.WithComponent("search"), onChange)
		deps.Search = l.search
	}
	l.router = input.NewRouter(input.Config{SequenceTimeout: settings.SequenceTimeoutDuration()}, deps)

	l.marks.SetListOpener(func() {
		l.picker.Open("marks", l.marks.PickItems(), func(chosen *picker.Item) {
			if chosen == nil {
				return
			}
			if r, ok := chosen.Data.(rune); ok {
				l.marks.JumpTo(r)
			}
		})
	})

	l.applyKeybinds()

	l.unsubs = append(l.unsubs,
		hub.Subscribe(notify.TopicSettings, func(string) { l.applySettings() }),
		hub.Subscribe(notify.TopicKeybinds, func(string) { l.applyKeybinds() }),
	)

	if err := store.Watch(); err != nil {
		log.Warn("config watch unavailable: %v", err)
	}

	l.scripts = script.New(script.Deps{
		Binder:   l.router,
		Executor: opts.Executor,
		Notices:  hub,
		Log:      log.WithComponent("script"),
	})
	// The script engine reports its own load failures.
	_ = l.scripts.LoadFile(filepath.Join(store.Dir(), "init.lua"))

	return l, nil
}

func (l *Layer) applySettings() {
	s := l.store.Settings()
	l.driver.SetConfig(s.ScrollConfig())
	l.router.SetSequenceTimeout(s.SequenceTimeoutDuration())
	l.hints.SetAlphabet(s.HintAlphabet)
}

func (l *Layer) applyKeybinds() {
	for _, err := range l.store.ApplyKeybinds(l.router) {
		l.log.Warn("keybinds: %v", err)
		l.hub.Noticef("keybind rejected: %v", err)
	}
}

// EnsureWindow registers a window handle and reports whether it was
// new. The caller attaches its key listeners only on the first sight;
// repeat calls for the same handle are cheap no-ops.
func (l *Layer) EnsureWindow(handle string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.windows[handle]; ok {
		return false
	}
	l.windows[handle] = struct{}{}
	return true
}

// HandleKeyDown routes one keydown. Returns true when the event was
// consumed and must not reach the host.
func (l *Layer) HandleKeyDown(ev key.Event) bool {
	// Fuzzy pickers sit above the router; they are modal.
	if l.picker.Active() {
		return l.picker.HandleKey(ev)
	}
	return l.router.HandleKeyDown(ev)
}

// HandleKeyUp routes one keyup.
func (l *Layer) HandleKeyUp(ev key.Event) {
	l.router.HandleKeyUp(ev)
}

// PointerDown cancels hint mode; any outside press backs out.
func (l *Layer) PointerDown() {
	l.hints.PointerDown()
}

// Teardown stops every component and releases the config watcher.
// Idempotent.
func (l *Layer) Teardown() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	unsubs := l.unsubs
	l.unsubs = nil
	l.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	l.router.Stop()
	l.picker.Stop()
	l.driver.Stop()
	l.scripts.Close()
	if err := l.store.Close(); err != nil {
		l.log.Warn("config close: %v", err)
	}
}

// Router exposes the dispatcher, mainly for rebinding.
func (l *Layer) Router() *input.Router { return l.router }

// Marks exposes the mark store.
func (l *Layer) Marks() *mark.Store { return l.marks }

// Hints exposes the hint engine for overlay rendering.
func (l *Layer) Hints() *hint.Engine { return l.hints }

// Search exposes the find overlay; nil when the host has no native
// find surface.
func (l *Layer) Search() *search.Overlay { return l.search }

// Picker exposes the modal picker for overlay rendering.
func (l *Layer) Picker() *picker.Picker { return l.picker }

// Driver exposes the scroll driver.
func (l *Layer) Driver() *scroll.Driver { return l.driver }

// Config exposes the settings store.
func (l *Layer) Config() *config.Store { return l.store }

// Notices exposes the notice hub.
func (l *Layer) Notices() *notify.Hub { return l.hub }
