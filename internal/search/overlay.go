package search

import (
	"sync"
	"time"

	"github.com/dshills/keypilot/internal/host"
	"github.com/dshills/keypilot/internal/input/key"
	"github.com/dshills/keypilot/internal/notify"
	"github.com/dshills/keypilot/internal/retry"
)

// Attach poll budget for the native find panel.
const (
	attachAttempts = 10
	attachInterval = 50 * time.Millisecond
)

// Logger is the subset of the app logger the overlay needs.
type Logger interface {
	Warn(msg string, args ...any)
}

// View is a render snapshot of the overlay HUD.
type View struct {
	Query        string
	Current      int
	Total        int
	InputFocused bool
}

// Overlay is the find HUD. It opens the host's native find facility,
// attaches to its controls with a bounded poll, and mirrors state both
// ways. The zero value is not usable; call NewOverlay.
type Overlay struct {
	mu sync.Mutex

	find     host.NativeFind
	notices  *notify.Hub
	cache    *Cache
	log      Logger
	onChange func()

	open         bool
	inputFocused bool
	attached     bool
	query        []rune
	current      int
	total        int
	path         string

	attach     *retry.Task
	disconnect func()
}

// NewOverlay creates a closed overlay. onChange fires on any state a
// HUD would render; it may be nil. log may be nil.
func NewOverlay(find host.NativeFind, hub *notify.Hub, log Logger, onChange func()) *Overlay {
	return &Overlay{
		find:     find,
		notices:  hub,
		cache:    NewCache(),
		log:      log,
		onChange: onChange,
	}
}

// Open shows the overlay for the given location path, triggers the
// native find UI, and starts the attach poll. Opening while already
// open refocuses the input.
func (o *Overlay) Open(path string) {
	o.mu.Lock()
	if o.open {
		o.inputFocused = true
		o.mu.Unlock()
		o.changed()
		return
	}
	o.open = true
	o.inputFocused = true
	o.attached = false
	o.path = path
	o.query = []rune(o.cache.Get(path))
	o.current, o.total = 0, 0
	o.mu.Unlock()

	if err := o.find.Open(); err != nil {
		o.mu.Lock()
		o.open = false
		o.inputFocused = false
		o.mu.Unlock()
		o.notices.Notice("find is unavailable")
		return
	}

	task := retry.Go(attachAttempts, attachInterval, o.find.Attach)
	o.mu.Lock()
	o.attach = task
	o.mu.Unlock()

	go func() {
		if task.Wait() != nil {
			// Panel never appeared. Revert without touching native
			// state.
			o.mu.Lock()
			wasOpen := o.open
			o.open = false
			o.inputFocused = false
			o.attach = nil
			o.mu.Unlock()
			if wasOpen {
				o.notices.Notice("find did not respond")
				o.changed()
			}
			return
		}

		o.mu.Lock()
		if !o.open {
			o.mu.Unlock()
			return
		}
		o.attached = true
		q := string(o.query)
		o.mu.Unlock()

		if q != "" {
			o.find.SetQuery(q)
		}
		disconnect := o.find.OnCounts(func(current, total int) {
			o.mu.Lock()
			o.current, o.total = current, total
			o.mu.Unlock()
			o.changed()
		})
		o.mu.Lock()
		if !o.open {
			// Stop ran while the observer was being installed. It
			// already closed the native find, so just undo the
			// connection it could not see.
			o.mu.Unlock()
			disconnect()
			return
		}
		o.disconnect = disconnect
		o.mu.Unlock()
		o.changed()
	}()

	o.changed()
}

// Active reports whether the overlay input has key focus. The router
// delegates keys here only in that sub-state; an open overlay with a
// blurred input takes n/N through normal dispatch.
func (o *Overlay) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open && o.inputFocused
}

// IsOpen reports whether the overlay is showing at all.
func (o *Overlay) IsOpen() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open
}

// Query returns the current query text.
func (o *Overlay) Query() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return string(o.query)
}

// Counts returns the native match ordinal and total as last observed.
func (o *Overlay) Counts() (current, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current, o.total
}

// Snapshot returns the HUD render state and whether the overlay is
// open.
func (o *Overlay) Snapshot() (View, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.open {
		return View{}, false
	}
	return View{
		Query:        string(o.query),
		Current:      o.current,
		Total:        o.total,
		InputFocused: o.inputFocused,
	}, true
}

// HandleKey consumes a key while the overlay input is focused.
func (o *Overlay) HandleKey(ev key.Event) bool {
	if !o.Active() {
		return false
	}

	switch {
	case ev.IsEscape():
		o.Stop()
		return true

	case ev.IsEnter():
		if ev.Modifiers.Has(key.ModShift) {
			o.Prev()
		} else {
			o.Next()
		}
		// Commit: blur the input so n/N navigate from here on.
		o.mu.Lock()
		o.inputFocused = false
		o.mu.Unlock()
		o.changed()
		return true

	case ev.Key == key.KeyDown:
		o.Next()
		return true

	case ev.Key == key.KeyUp:
		o.Prev()
		return true

	case ev.IsBackspace():
		o.mu.Lock()
		if len(o.query) > 0 {
			o.query = o.query[:len(o.query)-1]
		}
		q, attached := string(o.query), o.attached
		o.mu.Unlock()
		if attached {
			o.find.SetQuery(q)
		}
		o.changed()
		return true

	case ev.IsRune() && !ev.IsModified():
		o.mu.Lock()
		o.query = append(o.query, ev.Rune)
		q, attached := string(o.query), o.attached
		o.mu.Unlock()
		if attached {
			o.find.SetQuery(q)
		}
		o.changed()
		return true
	}

	// Unhandled specials stay inside the overlay.
	return true
}

// FocusInput refocuses the query input of an open overlay.
func (o *Overlay) FocusInput() {
	o.mu.Lock()
	if !o.open {
		o.mu.Unlock()
		return
	}
	o.inputFocused = true
	o.mu.Unlock()
	o.changed()
}

// Next advances to the next native match.
func (o *Overlay) Next() {
	if o.ready() {
		o.find.Next()
	}
}

// Prev moves to the previous native match.
func (o *Overlay) Prev() {
	if o.ready() {
		o.find.Prev()
	}
}

func (o *Overlay) ready() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open && o.attached
}

// Stop closes the overlay: cancels the attach poll, disconnects the
// count observer, caches the query for this path, and invokes the
// native close control. Idempotent.
func (o *Overlay) Stop() {
	o.mu.Lock()
	if !o.open {
		o.mu.Unlock()
		return
	}
	o.open = false
	o.inputFocused = false
	wasAttached := o.attached
	o.attached = false
	attach := o.attach
	o.attach = nil
	disconnect := o.disconnect
	o.disconnect = nil
	o.cache.Put(o.path, string(o.query))
	o.mu.Unlock()

	if attach != nil {
		attach.Cancel()
	}
	if disconnect != nil {
		disconnect()
	}
	if wasAttached {
		o.find.Close()
	}
	o.changed()
}

func (o *Overlay) changed() {
	if o.onChange != nil {
		o.onChange()
	}
}
