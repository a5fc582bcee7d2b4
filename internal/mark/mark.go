// Package mark implements named scroll-position bookmarks keyed by
// single characters.
//
// Marks live in memory for the process lifetime and are shared across
// windows; the store owns them exclusively. A mark survives its
// surface: jumping to a mark whose surface died reopens the backing
// content in a new tab and re-scrolls once loading settles.
package mark

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dshills/keypilot/internal/host"
	"github.com/dshills/keypilot/internal/input/key"
	"github.com/dshills/keypilot/internal/notify"
	"github.com/dshills/keypilot/internal/picker"
	"github.com/dshills/keypilot/internal/retry"
	"github.com/dshills/keypilot/internal/scroll"
)

// Mark is one saved scroll position.
type Mark struct {
	// Key is the single-character name, unique across the store.
	Key rune

	// SurfaceID is the opaque handle of the creating surface.
	SurfaceID string

	// Path is the location path of the backing content.
	Path string

	// Fraction is the scroll position in [0, 1].
	Fraction float64
}

// settle poll budget for reopened tabs.
const (
	settleAttempts = 20
	settleInterval = 50 * time.Millisecond
)

type pendingState int

const (
	pendingNone pendingState = iota
	pendingCreate
	pendingJump
)

// Store holds the mark table and the create/jump pending sub-mode.
type Store struct {
	mu      sync.Mutex
	marks   map[rune]Mark
	pending pendingState

	resolver host.Resolver
	nav      host.Navigator
	driver   *scroll.Driver
	notices  *notify.Hub
	hub      *notify.Hub

	// openList presents the fuzzy list-all picker; wired by the app.
	openList func()

	settle *retry.Task
}

// NewStore creates an empty store.
func NewStore(resolver host.Resolver, nav host.Navigator, driver *scroll.Driver, hub *notify.Hub) *Store {
	return &Store{
		marks:    make(map[rune]Mark),
		resolver: resolver,
		nav:      nav,
		driver:   driver,
		notices:  hub,
		hub:      hub,
	}
}

// SetListOpener installs the list-all picker hook for the 'l' key in
// create-pending state.
func (s *Store) SetListOpener(open func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openList = open
}

// StartCreate enters the create-pending state: the next key names the
// mark.
func (s *Store) StartCreate() {
	s.startPending(pendingCreate, "mark: press a key to set")
}

// StartJump enters the jump-pending state: the next key resolves a
// mark.
func (s *Store) StartJump() {
	s.startPending(pendingJump, "jump: press a mark key")
}

func (s *Store) startPending(state pendingState, prompt string) {
	s.mu.Lock()
	s.pending = state
	s.mu.Unlock()
	s.notices.Notice(prompt)
}

// Active reports whether a create or jump is pending.
func (s *Store) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != pendingNone
}

// Stop cancels any pending state and the settle poll. Idempotent.
func (s *Store) Stop() {
	s.mu.Lock()
	s.pending = pendingNone
	if s.settle != nil {
		s.settle.Cancel()
		s.settle = nil
	}
	s.mu.Unlock()
}

// HandleKey consumes the next key after StartCreate or StartJump.
func (s *Store) HandleKey(ev key.Event) bool {
	s.mu.Lock()
	state := s.pending
	s.mu.Unlock()
	if state == pendingNone {
		return false
	}

	if ev.IsEscape() {
		s.Stop()
		return true
	}
	if !ev.IsRune() || ev.IsModified() {
		// Not a character; stay pending.
		return true
	}

	s.mu.Lock()
	s.pending = pendingNone
	openList := s.openList
	s.mu.Unlock()

	r := ev.Rune
	if state == pendingCreate {
		switch r {
		case 'd':
			s.clearActiveSurface()
		case 'l':
			if openList != nil {
				openList()
			}
		default:
			s.create(r)
		}
		return true
	}

	s.JumpTo(r)
	return true
}

// create sets or overwrites the mark at r using the active surface's
// scroll fraction.
func (s *Store) create(r rune) {
	surface := s.resolver.ActiveSurface()
	if surface == nil {
		s.notices.Notice("marks need a scrollable view")
		return
	}

	m := Mark{
		Key:       r,
		SurfaceID: surface.ID(),
		Path:      surface.Path(),
		Fraction:  scroll.Fraction(surface, host.Vertical),
	}

	s.mu.Lock()
	s.marks[r] = m
	s.mu.Unlock()

	s.hub.Publish(notify.TopicMarks)
	s.notices.Noticef("mark '%c' set", r)
}

// JumpTo navigates to the mark named r. Dead surfaces fall back to
// reopening the path; missing content deletes the mark.
func (s *Store) JumpTo(r rune) {
	s.mu.Lock()
	m, ok := s.marks[r]
	s.mu.Unlock()

	if !ok {
		s.notices.Noticef("mark '%c' not set", r)
		return
	}

	// Original surface still live: scroll in place, no reopen.
	if s.nav.ActivateSurface(m.SurfaceID) {
		if surface := s.resolver.ActiveSurface(); surface != nil {
			s.driver.SmoothToFraction(surface, host.Vertical, m.Fraction)
			return
		}
	}

	if !s.nav.PathExists(m.Path) {
		s.Delete(r)
		s.notices.Noticef("mark '%c' is stale; removed", r)
		return
	}

	surface, err := s.nav.OpenInNewTab(m.Path)
	if err != nil || surface == nil {
		s.notices.Noticef("mark '%c': %s could not be reopened", r, m.Path)
		return
	}

	// Rebind the mark to the reopened surface.
	s.mu.Lock()
	m.SurfaceID = surface.ID()
	s.marks[r] = m
	if s.settle != nil {
		s.settle.Cancel()
	}
	fraction := m.Fraction
	s.settle = retry.Go(settleAttempts, settleInterval, func() bool {
		if !surface.Live() || surface.Extent(host.Vertical) <= 0 {
			return false
		}
		s.driver.SmoothToFraction(surface, host.Vertical, fraction)
		return true
	})
	s.mu.Unlock()

	s.hub.Publish(notify.TopicMarks)
}

// Get returns the mark at r.
func (s *Store) Get(r rune) (Mark, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.marks[r]
	return m, ok
}

// Delete removes the mark at r and updates position-tick rendering
// through the marks topic.
func (s *Store) Delete(r rune) bool {
	s.mu.Lock()
	_, ok := s.marks[r]
	delete(s.marks, r)
	s.mu.Unlock()

	if ok {
		s.hub.Publish(notify.TopicMarks)
	}
	return ok
}

// clearActiveSurface removes every mark scoped to the active surface.
func (s *Store) clearActiveSurface() {
	surface := s.resolver.ActiveSurface()
	if surface == nil {
		s.notices.Notice("marks need a scrollable view")
		return
	}

	id := surface.ID()
	removed := 0
	s.mu.Lock()
	for r, m := range s.marks {
		if m.SurfaceID == id {
			delete(s.marks, r)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.hub.Publish(notify.TopicMarks)
	}
	s.notices.Noticef("cleared %d marks", removed)
}

// Marks returns all marks sorted by key.
func (s *Store) Marks() []Mark {
	s.mu.Lock()
	out := make([]Mark, 0, len(s.marks))
	for _, m := range s.marks {
		out = append(out, m)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// SurfaceMarks returns the marks scoped to one surface, for position
// tick rendering.
func (s *Store) SurfaceMarks(surfaceID string) []Mark {
	var out []Mark
	for _, m := range s.Marks() {
		if m.SurfaceID == surfaceID {
			out = append(out, m)
		}
	}
	return out
}

// PickItems adapts the mark table for the fuzzy list-all picker.
func (s *Store) PickItems() []picker.Item {
	marks := s.Marks()
	items := make([]picker.Item, len(marks))
	for i, m := range marks {
		items[i] = picker.Item{
			Label:  fmt.Sprintf("%c  %s", m.Key, m.Path),
			Detail: fmt.Sprintf("%.0f%%", m.Fraction*100),
			Data:   m.Key,
		}
	}
	return items
}
