// Package key defines key identity for the navigation layer.
//
// A key.Event is the canonical form of one host keystroke: a Key (or
// rune), its modifiers, and a timestamp. Events compose into Sequences
// for multi-key commands, and binding specs parse into Sequences with
// ParseSequence.
//
// Normalization follows the dispatch contract: shifted comma and
// period become '<' and '>', and commands are case-sensitive, so 'J'
// and 'j' are distinct identities.
package key
