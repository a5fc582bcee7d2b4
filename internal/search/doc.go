// Package search implements the find overlay and its handoff into the
// editable presentation.
//
// The overlay is a thin HUD over the host's native find facility: it
// mirrors typed input into the native input, observes the native match
// counter, and delegates prev/next to the native controls. Attaching
// to the native panel is polled with a bounded budget; when the budget
// runs out the overlay reverts to closed and leaves native search
// untouched.
package search
