// Package hint overlays selectable codes on interactive elements and
// resolves typed prefixes to a single target.
//
// The full hint set is created when hint mode starts and destroyed as
// a whole when it ends: on selection, Escape, or an outside pointer
// press. While active every key is consumed; nothing leaks to the
// host.
package hint

import (
	"strings"
	"sync"

	"github.com/dshills/keypilot/internal/host"
	"github.com/dshills/keypilot/internal/input/key"
	"github.com/dshills/keypilot/internal/notify"
)

// DefaultAlphabet is the fixed code alphabet.
const DefaultAlphabet = "abcdefghijklmnopqrstuvwxyz"

// Hint pairs a code with its target element.
type Hint struct {
	Code   string
	Target host.Target
	Frame  host.Rect
}

// Engine is the hint-select sub-mode.
type Engine struct {
	mu         sync.Mutex
	alphabet   []rune
	notices    *notify.Hub
	onChange   func()
	active     bool
	newContext bool
	hints      []Hint
	typed      string
}

// NewEngine creates an idle engine. alphabet defaults to
// DefaultAlphabet when empty; onChange fires after visible changes.
func NewEngine(alphabet string, notices *notify.Hub, onChange func()) *Engine {
	if alphabet == "" {
		alphabet = DefaultAlphabet
	}
	return &Engine{
		alphabet: []rune(alphabet),
		notices:  notices,
		onChange: onChange,
	}
}

// SetAlphabet replaces the code alphabet. Empty reverts to
// DefaultAlphabet. Hints already on screen keep their codes.
func (e *Engine) SetAlphabet(alphabet string) {
	if alphabet == "" {
		alphabet = DefaultAlphabet
	}
	e.mu.Lock()
	e.alphabet = []rune(alphabet)
	e.mu.Unlock()
}

// Codes assigns n unique codes over the alphabet. Counts within the
// alphabet get single characters; larger counts get two-character
// combinations in lexicographic (outer, inner) order so no live code
// is a strict prefix of another.
func Codes(n int, alphabet []rune) []string {
	if n <= 0 {
		return nil
	}
	if max := len(alphabet) * len(alphabet); n > max {
		n = max
	}

	codes := make([]string, 0, n)
	if n <= len(alphabet) {
		for i := 0; i < n; i++ {
			codes = append(codes, string(alphabet[i]))
		}
		return codes
	}

	for _, outer := range alphabet {
		for _, inner := range alphabet {
			if len(codes) == n {
				return codes
			}
			codes = append(codes, string([]rune{outer, inner}))
		}
	}
	return codes
}

// Start enters hint mode over the document's visible interactive
// elements. Returns false (with a user notice) when none are visible.
func (e *Engine) Start(newContext bool, doc host.DocumentView) bool {
	surface := doc.Surface()
	vw := surface.Viewport(host.Horizontal)
	vh := surface.Viewport(host.Vertical)

	var visible []host.Target
	var frames []host.Rect
	for _, t := range doc.Targets() {
		f := t.Frame()
		if inViewport(f, vw, vh) {
			visible = append(visible, t)
			frames = append(frames, f)
		}
	}

	if len(visible) == 0 {
		e.notices.Notice("no links visible")
		return false
	}

	e.mu.Lock()
	codes := Codes(len(visible), e.alphabet)
	e.hints = make([]Hint, len(visible))
	for i, t := range visible {
		e.hints[i] = Hint{Code: codes[i], Target: t, Frame: frames[i]}
	}
	e.typed = ""
	e.newContext = newContext
	e.active = true
	e.mu.Unlock()

	e.changed()
	return true
}

// inViewport requires non-zero rendered size and full containment;
// partially offscreen elements never get hints.
func inViewport(f host.Rect, vw, vh float64) bool {
	if f.W <= 0 || f.H <= 0 {
		return false
	}
	return f.X >= 0 && f.Y >= 0 && f.X+f.W <= vw && f.Y+f.H <= vh
}

// Active reports whether hint mode is on.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// HandleKey processes one key while active. Always consumed.
func (e *Engine) HandleKey(ev key.Event) bool {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return false
	}

	switch {
	case ev.IsEscape():
		e.stopLocked()
		e.mu.Unlock()
		e.changed()
		return true

	case ev.IsBackspace():
		if e.typed != "" {
			runes := []rune(e.typed)
			e.typed = string(runes[:len(runes)-1])
		}
		e.mu.Unlock()
		e.changed()
		return true

	case !ev.IsLetter():
		// Consumed but ignored.
		e.mu.Unlock()
		return true
	}

	e.typed += strings.ToLower(string(ev.Rune))

	var target host.Target
	newContext := e.newContext
	for _, h := range e.hints {
		if h.Code == e.typed {
			target = h.Target
			break
		}
	}
	if target != nil {
		e.stopLocked()
	}
	// A typed buffer that filters to zero hints is kept as-is; the
	// user backs out with Backspace or Escape.
	e.mu.Unlock()

	if target != nil {
		activate(target, newContext)
	}
	e.changed()
	return true
}

// PointerDown aborts hint mode; any outside press is a cancellation.
func (e *Engine) PointerDown() {
	e.mu.Lock()
	wasActive := e.active
	e.stopLocked()
	e.mu.Unlock()
	if wasActive {
		e.changed()
	}
}

// Stop exits hint mode and drops every hint. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopLocked()
	e.mu.Unlock()
}

func (e *Engine) stopLocked() {
	e.active = false
	e.hints = nil
	e.typed = ""
}

// Typed returns the pending code buffer.
func (e *Engine) Typed() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.typed
}

// Matching returns the hints whose codes start with the typed buffer,
// for overlay rendering.
func (e *Engine) Matching() []Hint {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return nil
	}
	out := make([]Hint, 0, len(e.hints))
	for _, h := range e.hints {
		if strings.HasPrefix(h.Code, e.typed) {
			out = append(out, h)
		}
	}
	return out
}

// activate triggers the chosen target: editable targets are focused,
// everything else is clicked.
func activate(t host.Target, newContext bool) {
	if t.Editable() {
		t.Focus()
		return
	}
	t.Click(newContext)
}

func (e *Engine) changed() {
	if e.onChange != nil {
		e.onChange()
	}
}
