// Package server hosts bridge sessions on the wire.
//
// Ownership boundary:
// - TCP (NDJSON), HTTP (WebSocket, probes, metrics) and stdio line listeners
//
// - one bridge.Session per connection, one response per request
//
// Document semantics live in internal/bridge; this package only moves bytes.
package server
