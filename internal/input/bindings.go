package input

import (
	"fmt"
	"sync"
)

// Bindings maps normalized key identities to named actions. Keys are
// one or two runes; the first rune of every two-key entry is a
// sequence starter and can never also carry a single-key binding.
type Bindings struct {
	mu     sync.RWMutex
	single map[rune]string
	pair   map[string]string
}

// DefaultBindings returns the stock binding table.
func DefaultBindings() *Bindings {
	return &Bindings{
		single: map[rune]string{
			'?':  "help.toggle",
			'j':  "scroll.down",
			'k':  "scroll.up",
			'h':  "scroll.left",
			'l':  "scroll.right",
			'd':  "scroll.halfDown",
			'u':  "scroll.halfUp",
			'G':  "scroll.bottom",
			'f':  "hints.open",
			'F':  "hints.openNewContext",
			'm':  "mark.create",
			'\'': "mark.jump",
			'b':  "picker.bookmarks",
			'o':  "picker.switcher",
			't':  "tab.new",
			'x':  "tab.close",
			'X':  "tab.restore",
			'^':  "tab.recall",
			'p':  "view.togglePin",
			'r':  "view.reload",
			'H':  "history.back",
			'L':  "history.forward",
			'/':  "search.open",
			'i':  "view.toggleEdit",
		},
		pair: map[string]string{
			"gg": "scroll.top",
			"ge": "scroll.end",
			"gt": "tab.next",
			"gT": "tab.prev",
			"g0": "tab.first",
			"g$": "tab.last",
			"gn": "heading.next",
			"gp": "heading.prev",
			"go": "open.defaultApp",
			"zi": "zoom.in",
			"zo": "zoom.out",
			"zz": "zoom.reset",
			"yy": "yank.path",
			"yt": "yank.title",
			"<<": "tab.moveLeft",
			">>": "tab.moveRight",
		},
	}
}

// Single returns the action bound to a single key.
func (b *Bindings) Single(r rune) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	name, ok := b.single[r]
	return name, ok
}

// Pair returns the action bound to a two-key sequence.
func (b *Bindings) Pair(first, second rune) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	name, ok := b.pair[string([]rune{first, second})]
	return name, ok
}

// IsStarter reports whether r begins any two-key sequence.
func (b *Bindings) IsStarter(r rune) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.isStarterLocked(r)
}

func (b *Bindings) isStarterLocked(r rune) bool {
	for keys := range b.pair {
		if []rune(keys)[0] == r {
			return true
		}
	}
	return false
}

// Rebind points a one- or two-character key spec at a named action.
// Specs that would make a key both a single binding and a sequence
// starter are rejected so dispatch stays unambiguous.
func (b *Bindings) Rebind(keys, action string) error {
	rs := []rune(keys)
	b.mu.Lock()
	defer b.mu.Unlock()
	switch len(rs) {
	case 1:
		if b.isStarterLocked(rs[0]) {
			return fmt.Errorf("key %q starts two-key sequences and cannot take a single binding", keys)
		}
		b.single[rs[0]] = action
	case 2:
		if bound, ok := b.single[rs[0]]; ok {
			return fmt.Errorf("key %q conflicts with %q bound to %s", keys, string(rs[0]), bound)
		}
		b.pair[string(rs)] = action
	default:
		return fmt.Errorf("key spec %q must be one or two characters", keys)
	}
	return nil
}
