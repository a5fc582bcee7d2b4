package key

import "strings"

// Sequence is an ordered series of key events forming a command,
// for example "gg" or "<C-s>".
type Sequence struct {
	// Events contains the key events in order.
	Events []Event
}

// NewSequence creates an empty sequence.
func NewSequence() *Sequence {
	return &Sequence{Events: make([]Event, 0, 2)}
}

// NewSequenceFrom creates a sequence from the given events.
func NewSequenceFrom(events ...Event) *Sequence {
	return &Sequence{Events: events}
}

// Len returns the number of events.
func (s *Sequence) Len() int { return len(s.Events) }

// IsEmpty returns true when the sequence has no events.
func (s *Sequence) IsEmpty() bool { return len(s.Events) == 0 }

// Add appends an event.
func (s *Sequence) Add(event Event) {
	s.Events = append(s.Events, event)
}

// Clear removes all events.
func (s *Sequence) Clear() {
	s.Events = s.Events[:0]
}

// First returns the first event, or nil if empty.
func (s *Sequence) First() *Event {
	if len(s.Events) == 0 {
		return nil
	}
	return &s.Events[0]
}

// Equals reports whether two sequences are identical.
func (s *Sequence) Equals(other *Sequence) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.Events) != len(other.Events) {
		return false
	}
	for i, e := range s.Events {
		if !e.Equals(other.Events[i]) {
			return false
		}
	}
	return true
}

// HasPrefix reports whether the sequence starts with prefix.
func (s *Sequence) HasPrefix(prefix *Sequence) bool {
	if prefix == nil || prefix.IsEmpty() {
		return true
	}
	if len(prefix.Events) > len(s.Events) {
		return false
	}
	for i, e := range prefix.Events {
		if !e.Equals(s.Events[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (s *Sequence) Clone() *Sequence {
	if s == nil {
		return nil
	}
	events := make([]Event, len(s.Events))
	copy(events, s.Events)
	return &Sequence{Events: events}
}

// String returns the normalized rune form when possible, otherwise a
// space-separated canonical form.
func (s *Sequence) String() string {
	if s == nil || len(s.Events) == 0 {
		return ""
	}
	if str, ok := s.AsString(); ok {
		return str
	}
	parts := make([]string, len(s.Events))
	for i, e := range s.Events {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}

// AsString returns the sequence as a plain string when every event is
// an unmodified printable rune.
func (s *Sequence) AsString() (string, bool) {
	if len(s.Events) == 0 {
		return "", false
	}
	var sb strings.Builder
	for _, e := range s.Events {
		r := e.Normalized()
		if r == 0 {
			return "", false
		}
		sb.WriteRune(r)
	}
	return sb.String(), true
}
