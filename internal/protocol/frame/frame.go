package frame

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

var (
	ErrFrameTooLarge   = errors.New("frame: frame too large")
	ErrEmbeddedNewline = errors.New("frame: payload contains a newline")
)

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxFrameBytes int
}

func DefaultLimits() Limits {
	return Limits{
		MaxFrameBytes: 8 * 1024 * 1024,
	}
}

// Reader splits a stream into newline-delimited frames. Blank lines are
// skipped and a trailing "\r" is dropped.
type Reader struct {
	br     *bufio.Reader
	limits Limits
}

func NewReader(r io.Reader, limits Limits) *Reader {
	if limits.MaxFrameBytes <= 0 {
		limits = DefaultLimits()
	}
	return &Reader{br: bufio.NewReader(r), limits: limits}
}

// ReadFrame returns the next frame without its terminator. An oversized line
// is consumed in full and reported as ErrFrameTooLarge, leaving the reader
// positioned at the next frame. A final unterminated frame is returned before
// io.EOF.
func (r *Reader) ReadFrame() ([]byte, error) {
	var buf []byte
	tooLarge := false
	for {
		chunk, err := r.br.ReadSlice('\n')
		if !tooLarge {
			if len(buf)+len(bytes.TrimRight(chunk, "\r\n")) > r.limits.MaxFrameBytes {
				tooLarge = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}

		switch {
		case err == nil:
			if tooLarge {
				return nil, ErrFrameTooLarge
			}
			line := bytes.TrimRight(buf, "\r\n")
			if len(bytes.TrimSpace(line)) == 0 {
				buf = buf[:0]
				continue
			}
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if tooLarge {
				return nil, ErrFrameTooLarge
			}
			line := bytes.TrimRight(buf, "\r\n")
			if len(bytes.TrimSpace(line)) > 0 {
				return line, nil
			}
			return nil, io.EOF
		default:
			return nil, err
		}
	}
}

// WriteFrame writes payload plus one newline terminator.
func WriteFrame(w io.Writer, payload []byte, limits Limits) error {
	if limits.MaxFrameBytes > 0 && len(payload) > limits.MaxFrameBytes {
		return ErrFrameTooLarge
	}
	if bytes.ContainsAny(payload, "\r\n") {
		return ErrEmbeddedNewline
	}
	out := make([]byte, 0, len(payload)+1)
	out = append(out, payload...)
	out = append(out, '\n')
	_, err := w.Write(out)
	return err
}
