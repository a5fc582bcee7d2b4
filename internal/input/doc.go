// Package input implements the Router, the single keystroke pipeline
// of the navigation layer.
//
// Every keydown from every attached window flows through one Router.
// Dispatch order is fixed: active sub-mode delegation (hints, then
// mark-pending, then search input), editable-field passthrough, the
// two-key sequence buffer, committed-search navigation, sequence
// starters, then the single-key table. Keyup events feed held-key
// momentum only.
package input
