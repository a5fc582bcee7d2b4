package key

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Event represents a single key press.
type Event struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune events.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// NewRuneEvent creates an event for a character key.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{Key: KeyRune, Rune: r, Modifiers: mods, Timestamp: time.Now()}
}

// NewSpecialEvent creates an event for a non-character key.
func NewSpecialEvent(key Key, mods Modifier) Event {
	return Event{Key: key, Modifiers: mods, Timestamp: time.Now()}
}

// IsRune returns true for character key events.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsLetter returns true for unmodified a-z or A-Z events.
func (e Event) IsLetter() bool {
	return e.IsRune() && !e.IsModified() &&
		((e.Rune >= 'a' && e.Rune <= 'z') || (e.Rune >= 'A' && e.Rune <= 'Z'))
}

// IsModified returns true if a non-Shift modifier is held. For
// character events Shift is part of the character itself.
func (e Event) IsModified() bool {
	if e.IsRune() {
		return e.Modifiers&(ModCtrl|ModAlt|ModMeta) != 0
	}
	return e.Modifiers != ModNone
}

// Normalized returns the rune identity used for binding lookup.
// Shifted comma and period map to '<' and '>'; case is preserved so
// case-sensitive commands ('J' vs 'j') stay distinct. Returns 0 for
// special keys and modified events.
func (e Event) Normalized() rune {
	if !e.IsRune() || e.IsModified() {
		return 0
	}
	if e.Modifiers.HasShift() {
		switch e.Rune {
		case ',':
			return '<'
		case '.':
			return '>'
		}
	}
	if !unicode.IsPrint(e.Rune) {
		return 0
	}
	return e.Rune
}

// IsEscape returns true for an unmodified Escape.
func (e Event) IsEscape() bool {
	return e.Key == KeyEscape && e.Modifiers == ModNone
}

// IsEnter returns true for Enter regardless of Shift.
func (e Event) IsEnter() bool {
	return e.Key == KeyEnter && e.Modifiers&^ModShift == ModNone
}

// IsBackspace returns true for an unmodified Backspace.
func (e Event) IsBackspace() bool {
	return e.Key == KeyBackspace && e.Modifiers == ModNone
}

// Equals reports whether two events are the same key press.
// Timestamps are not compared.
func (e Event) Equals(other Event) bool {
	return e.Key == other.Key && e.Rune == other.Rune && e.Modifiers == other.Modifiers
}

// String returns a canonical representation such as "a", "C-s", "Esc".
func (e Event) String() string {
	var parts []string
	if e.Modifiers.HasCtrl() {
		parts = append(parts, "C")
	}
	if e.Modifiers.HasAlt() {
		parts = append(parts, "A")
	}
	if e.Modifiers.HasMeta() {
		parts = append(parts, "M")
	}
	if e.Modifiers.HasShift() && !e.IsRune() {
		parts = append(parts, "S")
	}

	var name string
	switch {
	case e.Key == KeyRune && e.Rune == ' ':
		name = "Space"
	case e.Key == KeyRune:
		name = string(e.Rune)
	default:
		name = e.Key.String()
	}
	parts = append(parts, name)
	return strings.Join(parts, "-")
}

// GoString implements fmt.GoStringer for debugging.
func (e Event) GoString() string {
	return fmt.Sprintf("Event{Key: %s, Rune: %q, Modifiers: %s}",
		e.Key.String(), e.Rune, e.Modifiers.String())
}
