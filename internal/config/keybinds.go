package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Rebinder applies one keybinding override. The router implements it.
type Rebinder interface {
	Rebind(keys, action string) error
}

// LoadKeybinds reads a keybinds.json file and applies every entry of
// its "bindings" object through rb. A missing file is not an error.
// Each rejected entry contributes one error so the caller can report
// every conflict at once.
func LoadKeybinds(path string, rb Rebinder) []error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return []error{fmt.Errorf("config: read keybinds: %w", err)}
	}
	if !gjson.ValidBytes(data) {
		return []error{fmt.Errorf("config: %s is not valid JSON", path)}
	}

	var errs []error
	gjson.GetBytes(data, "bindings").ForEach(func(k, v gjson.Result) bool {
		if err := rb.Rebind(k.String(), v.String()); err != nil {
			errs = append(errs, fmt.Errorf("config: binding %q: %w", k.String(), err))
		}
		return true
	})
	return errs
}

// SaveKeybind writes a single override into keybinds.json, creating
// the file when missing and preserving everything else in it.
func SaveKeybind(path, keys, action string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("config: read keybinds: %w", err)
		}
		data = []byte("{}")
	}

	out, err := sjson.SetBytes(data, "bindings."+escapePath(keys), action)
	if err != nil {
		return fmt.Errorf("config: set binding %q: %w", keys, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("config: write keybinds: %w", err)
	}
	return nil
}

// escapePath protects key specs like "?" or "g$" from being read as
// path syntax.
func escapePath(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', ':', '|', '#', '@', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
