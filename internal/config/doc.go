// Package config persists user settings and keybinding overrides.
//
// Settings live in TOML at <configDir>/keypilot/settings.toml and are
// validated by clamping out-of-range values back to their defaults.
// Keybinding overrides live next to them in keybinds.json. A file
// watcher reloads both on change and publishes through the notify
// hub.
package config
