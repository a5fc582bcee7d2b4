package key

import "testing"

func TestKeyString(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{KeyNone, "None"},
		{KeyEscape, "Esc"},
		{KeyEnter, "Enter"},
		{KeyBackspace, "BS"},
		{KeyPageDown, "PgDn"},
		{KeyUp, "Up"},
		{KeyRune, "Rune"},
		{Key(200), "Key(200)"},
	}

	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("Key.String() = %q, want %q", got, tt.want)
		}
	}
}

func TestKeyIsSpecial(t *testing.T) {
	if KeyRune.IsSpecial() {
		t.Error("KeyRune should not be special")
	}
	if KeyNone.IsSpecial() {
		t.Error("KeyNone should not be special")
	}
	if !KeyEscape.IsSpecial() {
		t.Error("KeyEscape should be special")
	}
}

func TestKeyIsArrow(t *testing.T) {
	for _, k := range []Key{KeyUp, KeyDown, KeyLeft, KeyRight} {
		if !k.IsArrow() {
			t.Errorf("%v should be an arrow key", k)
		}
	}
	if KeyEscape.IsArrow() {
		t.Error("KeyEscape should not be an arrow key")
	}
}

func TestModifierOperations(t *testing.T) {
	m := ModNone.With(ModCtrl).With(ModShift)
	if !m.HasCtrl() || !m.HasShift() {
		t.Errorf("modifier with Ctrl+Shift = %v", m)
	}
	if m.HasAlt() {
		t.Error("Alt should not be set")
	}
	m = m.Without(ModCtrl)
	if m.HasCtrl() {
		t.Error("Ctrl should be removed")
	}
}

func TestModifierString(t *testing.T) {
	tests := []struct {
		mod  Modifier
		want string
	}{
		{ModNone, ""},
		{ModCtrl, "C"},
		{ModCtrl | ModShift, "C-S"},
		{ModCtrl | ModAlt | ModMeta | ModShift, "C-A-M-S"},
	}

	for _, tt := range tests {
		if got := tt.mod.String(); got != tt.want {
			t.Errorf("Modifier.String() = %q, want %q", got, tt.want)
		}
	}
}
