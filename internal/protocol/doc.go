// Package protocol owns the bridge wire contract.
//
// Ownership boundary:
// - request/response envelopes for the JSON transports
// - legacy line commands and tagged output lines
// - frame/ newline-delimited frame primitives
package protocol
