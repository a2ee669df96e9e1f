// Package outline is the in-memory outline engine the bridge serves.
//
// Ownership boundary:
// - node arena keyed by gnx, with one hidden root
// - value-typed positions and their validation against the live tree
// - read-only loaders for .leo, .db, .yaml and .json outlines
//
// The bridge never mutates the arena directly; it goes through Document.
package outline
