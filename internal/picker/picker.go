// Package picker implements the modal fuzzy list picker used for
// marks, tabs, and bookmarks: present a filterable list, return the
// chosen item or none.
package picker

import (
	"sync"

	"github.com/dshills/keypilot/internal/input/key"
	"github.com/dshills/keypilot/internal/picker/fuzzy"
)

// Item is one pickable entry.
type Item struct {
	// Label is the primary text, matched by the filter.
	Label string

	// Detail is secondary text shown alongside the label.
	Detail string

	// Data is arbitrary data resolved on selection.
	Data any
}

// Entry is one row of the rendered list.
type Entry struct {
	Item Item

	// Matches holds the rune indices of filter hits in Label.
	Matches []int

	// Selected marks the highlighted row.
	Selected bool
}

// View is a render snapshot of the open picker.
type View struct {
	Title   string
	Query   string
	Entries []Entry
}

// Picker is a single-selection modal list. Only one session is open
// at a time; opening while active cancels the previous session.
type Picker struct {
	mu       sync.Mutex
	active   bool
	title    string
	items    []Item
	query    string
	filtered []fuzzy.Result
	selected int
	onDone   func(chosen *Item)
	onChange func()
}

// New creates an idle picker. onChange, when non-nil, fires after any
// visible state change so the host can redraw.
func New(onChange func()) *Picker {
	return &Picker{onChange: onChange}
}

// Open starts a selection session. onDone receives the chosen item,
// or nil when the session is cancelled.
func (p *Picker) Open(title string, items []Item, onDone func(chosen *Item)) {
	p.mu.Lock()
	prev := p.onDone
	wasActive := p.active

	p.active = true
	p.title = title
	p.items = items
	p.query = ""
	p.selected = 0
	p.onDone = onDone
	p.refilterLocked()
	p.mu.Unlock()

	if wasActive && prev != nil {
		prev(nil)
	}
	p.changed()
}

// Active reports whether a session is open.
func (p *Picker) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Stop cancels the open session. Idempotent.
func (p *Picker) Stop() {
	p.finish(nil)
}

// HandleKey processes one key while the picker is open. Every key is
// consumed; the session is modal.
func (p *Picker) HandleKey(ev key.Event) bool {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return false
	}

	switch {
	case ev.IsEscape():
		p.mu.Unlock()
		p.finish(nil)
		return true

	case ev.IsEnter():
		var chosen *Item
		if len(p.filtered) > 0 {
			item := p.filtered[p.selected].Item.Data.(Item)
			chosen = &item
		}
		p.mu.Unlock()
		p.finish(chosen)
		return true

	case ev.Key == key.KeyDown || (ev.Rune == 'n' && ev.Modifiers.HasCtrl()):
		if p.selected < len(p.filtered)-1 {
			p.selected++
		}

	case ev.Key == key.KeyUp || (ev.Rune == 'p' && ev.Modifiers.HasCtrl()):
		if p.selected > 0 {
			p.selected--
		}

	case ev.IsBackspace():
		if p.query != "" {
			runes := []rune(p.query)
			p.query = string(runes[:len(runes)-1])
			p.refilterLocked()
		}

	case ev.IsRune() && !ev.IsModified():
		p.query += string(ev.Rune)
		p.refilterLocked()
	}

	p.mu.Unlock()
	p.changed()
	return true
}

// Snapshot returns the current view for rendering.
func (p *Picker) Snapshot() (View, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return View{}, false
	}

	v := View{Title: p.title, Query: p.query, Entries: make([]Entry, len(p.filtered))}
	for i, r := range p.filtered {
		v.Entries[i] = Entry{
			Item:     r.Item.Data.(Item),
			Matches:  r.Matches,
			Selected: i == p.selected,
		}
	}
	return v, true
}

// refilterLocked recomputes the filtered list and clamps selection.
func (p *Picker) refilterLocked() {
	fitems := make([]fuzzy.Item, len(p.items))
	for i, it := range p.items {
		fitems[i] = fuzzy.Item{Text: it.Label, Data: it}
	}
	p.filtered = fuzzy.Match(p.query, fitems, 0)
	if p.selected >= len(p.filtered) {
		p.selected = 0
	}
}

// finish closes the session and reports the result exactly once.
func (p *Picker) finish(chosen *Item) {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	done := p.onDone
	p.active = false
	p.items = nil
	p.filtered = nil
	p.onDone = nil
	p.query = ""
	p.mu.Unlock()

	if done != nil {
		done(chosen)
	}
	p.changed()
}

func (p *Picker) changed() {
	if p.onChange != nil {
		p.onChange()
	}
}
