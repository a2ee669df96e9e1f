// Package bridge exposes an open outline to a remote client as archived
// positions.
//
// Ownership boundary:
// - identity cache (gnx -> node) per open document
// - position codec and the round-trip verifier run on open
// - per-session state and the action catalogue/dispatcher
//
// A Session is owned by exactly one transport loop; nothing here locks.
package bridge
