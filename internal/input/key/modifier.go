package key

import "strings"

// Modifier is a bitmask of modifier keys held during an event.
type Modifier uint8

const (
	// ModNone means no modifiers.
	ModNone Modifier = 0

	// ModShift is the Shift key.
	ModShift Modifier = 1 << iota
	// ModCtrl is the Control key.
	ModCtrl
	// ModAlt is the Alt/Option key.
	ModAlt
	// ModMeta is the Command/Super key.
	ModMeta
)

// Has returns true if all bits of mod are set.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod == mod
}

// With returns a copy with the given modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a copy with the given modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// HasShift returns true if Shift is set.
func (m Modifier) HasShift() bool { return m.Has(ModShift) }

// HasCtrl returns true if Ctrl is set.
func (m Modifier) HasCtrl() bool { return m.Has(ModCtrl) }

// HasAlt returns true if Alt is set.
func (m Modifier) HasAlt() bool { return m.Has(ModAlt) }

// HasMeta returns true if Meta is set.
func (m Modifier) HasMeta() bool { return m.Has(ModMeta) }

// String returns a canonical representation such as "C-S".
func (m Modifier) String() string {
	if m == ModNone {
		return ""
	}
	var parts []string
	if m.HasCtrl() {
		parts = append(parts, "C")
	}
	if m.HasAlt() {
		parts = append(parts, "A")
	}
	if m.HasMeta() {
		parts = append(parts, "M")
	}
	if m.HasShift() {
		parts = append(parts, "S")
	}
	return strings.Join(parts, "-")
}

// parseModifier maps a spec-string modifier token to its bit.
func parseModifier(tok string) (Modifier, bool) {
	switch strings.ToLower(tok) {
	case "c", "ctrl":
		return ModCtrl, true
	case "a", "alt":
		return ModAlt, true
	case "m", "d", "meta", "cmd":
		return ModMeta, true
	case "s", "shift":
		return ModShift, true
	}
	return ModNone, false
}
