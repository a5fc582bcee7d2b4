// Package host declares the collaborator contracts the navigation
// layer depends on: surface resolution, command execution, native
// find, clipboard, and notices.
//
// The host's rendering pipeline, document model, and command execution
// semantics sit behind these interfaces as an opaque service boundary.
// The layer consumes their data and emits commands; it never reaches
// past them.
package host
