package key

import "testing"

func TestSequenceBasics(t *testing.T) {
	s := NewSequence()
	if !s.IsEmpty() {
		t.Error("new sequence should be empty")
	}
	s.Add(NewRuneEvent('g', ModNone))
	s.Add(NewRuneEvent('g', ModNone))
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if s.First() == nil || s.First().Rune != 'g' {
		t.Error("First() should return the first event")
	}
	s.Clear()
	if !s.IsEmpty() {
		t.Error("Clear() should empty the sequence")
	}
}

func TestSequenceEquals(t *testing.T) {
	a := MustParseSequence("gg")
	b := MustParseSequence("g g")
	if !a.Equals(b) {
		t.Error("continuous and spaced specs should parse equal")
	}
	if a.Equals(MustParseSequence("gt")) {
		t.Error("different sequences should not be equal")
	}
	if a.Equals(MustParseSequence("g")) {
		t.Error("different lengths should not be equal")
	}
}

func TestSequenceHasPrefix(t *testing.T) {
	full := MustParseSequence("gt")
	if !full.HasPrefix(MustParseSequence("g")) {
		t.Error("g should prefix gt")
	}
	if full.HasPrefix(MustParseSequence("z")) {
		t.Error("z should not prefix gt")
	}
	if !full.HasPrefix(NewSequence()) {
		t.Error("empty sequence prefixes everything")
	}
}

func TestSequenceClone(t *testing.T) {
	a := MustParseSequence("yy")
	b := a.Clone()
	b.Add(NewRuneEvent('x', ModNone))
	if a.Len() != 2 {
		t.Error("mutating a clone should not affect the original")
	}
}

func TestSequenceAsString(t *testing.T) {
	s, ok := MustParseSequence("gg").AsString()
	if !ok || s != "gg" {
		t.Errorf("AsString() = %q, %v; want \"gg\", true", s, ok)
	}
	if _, ok := MustParseSequence("<C-s>").AsString(); ok {
		t.Error("modified events should not stringify")
	}
	if _, ok := NewSequence().AsString(); ok {
		t.Error("empty sequence should not stringify")
	}
}
