package config

import (
	"time"

	"github.com/dshills/keypilot/internal/scroll"
)

// Settings is the flat persisted settings record. Interval fields are
// milliseconds.
type Settings struct {
	ScrollSpeed          float64 `toml:"scrollSpeed"`
	RepeatInterval       int     `toml:"repeatInterval"`
	SmoothScrollStart    float64 `toml:"smoothScrollStart"`
	SmoothScrollEnd      float64 `toml:"smoothScrollEnd"`
	SmoothScrollDuration int     `toml:"smoothScrollDuration"`
	SmoothScrollCurve    float64 `toml:"smoothScrollCurve"`
	SequenceTimeout      int     `toml:"sequenceTimeout"`
	HintAlphabet         string  `toml:"hintAlphabet"`
}

// DefaultSettings returns the documented defaults.
func DefaultSettings() Settings {
	return Settings{
		ScrollSpeed:          300,
		RepeatInterval:       15,
		SmoothScrollStart:    0.5,
		SmoothScrollEnd:      3.0,
		SmoothScrollDuration: 1000,
		SmoothScrollCurve:    2.0,
		SequenceTimeout:      500,
		HintAlphabet:         "abcdefghijklmnopqrstuvwxyz",
	}
}

// Clamp returns a copy with out-of-range values reset to their
// defaults. Hand-edited files never take the layer down.
func (s Settings) Clamp() Settings {
	def := DefaultSettings()
	if s.ScrollSpeed <= 0 || s.ScrollSpeed > 10000 {
		s.ScrollSpeed = def.ScrollSpeed
	}
	if s.RepeatInterval < 1 || s.RepeatInterval > 1000 {
		s.RepeatInterval = def.RepeatInterval
	}
	if s.SmoothScrollStart <= 0 || s.SmoothScrollStart > 10 {
		s.SmoothScrollStart = def.SmoothScrollStart
	}
	if s.SmoothScrollEnd <= 0 || s.SmoothScrollEnd > 10 {
		s.SmoothScrollEnd = def.SmoothScrollEnd
	}
	if s.SmoothScrollDuration < 1 || s.SmoothScrollDuration > 60000 {
		s.SmoothScrollDuration = def.SmoothScrollDuration
	}
	if s.SmoothScrollCurve < 0.1 || s.SmoothScrollCurve > 10 {
		s.SmoothScrollCurve = def.SmoothScrollCurve
	}
	if s.SequenceTimeout < 50 || s.SequenceTimeout > 5000 {
		s.SequenceTimeout = def.SequenceTimeout
	}
	if !validAlphabet(s.HintAlphabet) {
		s.HintAlphabet = def.HintAlphabet
	}
	return s
}

// validAlphabet requires at least two distinct lowercase letters so
// hint codes stay short and unambiguous.
func validAlphabet(alphabet string) bool {
	seen := make(map[rune]bool)
	for _, r := range alphabet {
		if r < 'a' || r > 'z' || seen[r] {
			return false
		}
		seen[r] = true
	}
	return len(seen) >= 2
}

// ScrollConfig translates the settings into the scroll driver's
// configuration, keeping the driver's own correction defaults.
func (s Settings) ScrollConfig() scroll.Config {
	cfg := scroll.DefaultConfig()
	cfg.Speed = s.ScrollSpeed
	cfg.RepeatInterval = time.Duration(s.RepeatInterval) * time.Millisecond
	cfg.StartMultiplier = s.SmoothScrollStart
	cfg.EndMultiplier = s.SmoothScrollEnd
	cfg.Duration = time.Duration(s.SmoothScrollDuration) * time.Millisecond
	cfg.CurveExponent = s.SmoothScrollCurve
	return cfg
}

// SequenceTimeoutDuration returns the sequence timeout as a Duration.
func (s Settings) SequenceTimeoutDuration() time.Duration {
	return time.Duration(s.SequenceTimeout) * time.Millisecond
}
