package key

import (
	"fmt"
	"strings"
)

// Parse parses a single key spec such as "a", "<C-s>", "Esc".
func Parse(spec string) (Event, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Event{}, fmt.Errorf("empty key spec")
	}

	// Vim-style <...> notation.
	if strings.HasPrefix(spec, "<") && strings.HasSuffix(spec, ">") && len(spec) > 2 {
		return parseAngle(spec[1 : len(spec)-1])
	}

	// Single printable character.
	runes := []rune(spec)
	if len(runes) == 1 {
		return NewRuneEvent(runes[0], ModNone), nil
	}

	// Bare special key name.
	if k, ok := keyNames[strings.ToLower(spec)]; ok {
		return NewSpecialEvent(k, ModNone), nil
	}

	return Event{}, fmt.Errorf("invalid key spec: %q", spec)
}

// parseAngle parses the interior of <...>: "C-s", "S-Enter", "Space".
func parseAngle(body string) (Event, error) {
	parts := strings.Split(body, "-")

	mods := ModNone
	for len(parts) > 1 {
		mod, ok := parseModifier(parts[0])
		if !ok {
			break
		}
		mods = mods.With(mod)
		parts = parts[1:]
	}

	name := strings.Join(parts, "-")
	if name == "" {
		return Event{}, fmt.Errorf("invalid key spec: <%s>", body)
	}

	if strings.EqualFold(name, "space") {
		ev := NewRuneEvent(' ', mods)
		return ev, nil
	}
	if k, ok := keyNames[strings.ToLower(name)]; ok {
		return NewSpecialEvent(k, mods), nil
	}

	runes := []rune(name)
	if len(runes) == 1 {
		return NewRuneEvent(runes[0], mods), nil
	}

	return Event{}, fmt.Errorf("unknown key name: %q", name)
}

// ParseSequence parses a binding spec into a Sequence. Specs may be
// space-separated ("g g"), continuous ("gg"), or mixed with angle
// notation ("<C-x>s").
func ParseSequence(spec string) (*Sequence, error) {
	spec = strings.TrimSpace(spec)
	seq := NewSequence()
	if spec == "" {
		return seq, nil
	}

	if strings.Contains(spec, " ") {
		for _, part := range strings.Fields(spec) {
			ev, err := Parse(part)
			if err != nil {
				return nil, err
			}
			seq.Add(ev)
		}
		return seq, nil
	}

	runes := []rune(spec)
	for i := 0; i < len(runes); {
		if runes[i] == '<' {
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == '>' {
					end = j
					break
				}
			}
			if end == -1 {
				// No closing '>': literal '<'.
				seq.Add(NewRuneEvent('<', ModNone))
				i++
				continue
			}
			ev, err := Parse(string(runes[i : end+1]))
			if err != nil {
				return nil, err
			}
			seq.Add(ev)
			i = end + 1
			continue
		}
		seq.Add(NewRuneEvent(runes[i], ModNone))
		i++
	}
	return seq, nil
}

// MustParseSequence parses a known-valid spec and panics on error.
// Use only in initialization code.
func MustParseSequence(spec string) *Sequence {
	seq, err := ParseSequence(spec)
	if err != nil {
		panic("invalid key sequence: " + spec + ": " + err.Error())
	}
	return seq
}
