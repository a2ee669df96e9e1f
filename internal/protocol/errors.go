package protocol

import "errors"

var (
	ErrMalformedRequest = errors.New("protocol: malformed request")
	ErrMissingAction    = errors.New("protocol: missing action")
	ErrEmbeddedNewline  = errors.New("protocol: embedded newline in outbound line")
	ErrEmptyLine        = errors.New("protocol: empty command line")
)
