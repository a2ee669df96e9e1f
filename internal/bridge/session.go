package bridge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/leobridge/internal/observability"
	"github.com/danmuck/leobridge/internal/outline"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State is the session document lifecycle.
type State int

const (
	StateUnopened State = iota
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Opener loads a document for the open action.
type Opener func(path string) (*outline.Document, error)

// SessionConfig configures per-session behavior.
type SessionConfig struct {
	Opener         Opener
	VerifyOnOpen   bool
	WatchDocuments bool
	Transport      string
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Opener:       outline.Open,
		VerifyOnOpen: true,
	}
}

// Session is the context threaded through every handler: the one open
// document, its identity cache and the id of the action in flight.
type Session struct {
	ID string

	cfg      SessionConfig
	state    State
	doc      *outline.Document
	cache    *IdentityCache
	codec    *Codec
	watcher  *DocumentWatcher
	actionID int
	logger   zerolog.Logger
}

func NewSession(cfg SessionConfig) *Session {
	if cfg.Opener == nil {
		cfg.Opener = outline.Open
	}
	id := ulid.Make().String()
	return &Session{
		ID:       id,
		cfg:      cfg,
		state:    StateUnopened,
		actionID: 1,
		logger:   log.With().Str("session", id).Str("transport", cfg.Transport).Logger(),
	}
}

func (s *Session) State() State {
	return s.state
}

// ActionID is the id every output of the current action is tagged with.
func (s *Session) ActionID() int {
	return s.actionID
}

func (s *Session) SetActionID(id int) {
	s.actionID = id
}

func (s *Session) Document() *outline.Document {
	return s.doc
}

func (s *Session) Cache() *IdentityCache {
	return s.cache
}

func (s *Session) Codec() *Codec {
	return s.codec
}

func (s *Session) Logger() *zerolog.Logger {
	return &s.logger
}

// ChangedOnDisk reports whether the open file was modified by someone else
// since it was opened. Only set when document watching is enabled.
func (s *Session) ChangedOnDisk() bool {
	return s.watcher != nil && s.watcher.Changed()
}

// Open loads path and adopts it as the session document.
func (s *Session) Open(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("%w: missing file path", ErrInvalidParam)
	}
	doc, err := s.cfg.Opener(path)
	if err != nil {
		return err
	}
	if err := s.Adopt(doc); err != nil {
		return err
	}
	if s.cfg.WatchDocuments {
		s.watch(path)
	}
	return nil
}

// Adopt builds a fresh cache for doc, verifies the codec against it and only
// then replaces the current document. On failure the session is unchanged.
func (s *Session) Adopt(doc *outline.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidParam)
	}
	cache := BuildIdentityCache(doc.UniqueNodes())
	codec := NewCodec(doc, cache)

	if s.cfg.VerifyOnOpen {
		report, err := Verify(doc, cache, codec)
		observability.RecordVerify(report.Positions, report.Duration, err == nil)
		if err != nil {
			var cerr *ConsistencyError
			if errors.As(err, &cerr) {
				s.logger.Error().
					Str("path", doc.Path).
					Str("position", cerr.Position.String()).
					Err(err).
					Msg("bridge.Session.Adopt round trip failed")
			}
			return err
		}
		s.logger.Info().
			Str("path", doc.Path).
			Int("positions", report.Positions).
			Int("cache_entries", report.CacheEntries).
			Dur("duration", report.Duration).
			Msg("bridge.Session.Adopt round trip verified")
	}

	s.closeWatcher()
	s.doc = doc
	s.cache = cache
	s.codec = codec
	s.state = StateOpen
	return nil
}

// Close releases the watcher; the document itself is engine-owned.
func (s *Session) Close() error {
	return s.closeWatcher()
}

func (s *Session) requireDocument() error {
	if s.state != StateOpen || s.doc == nil {
		return ErrNoDocumentOpen
	}
	return nil
}

// resolve decodes ap and checks the result still names a live occurrence.
func (s *Session) resolve(ap ArchivedPosition) (outline.Position, error) {
	p, err := s.codec.Decode(ap)
	if err != nil {
		return outline.Position{}, err
	}
	if !s.doc.IsValid(p) {
		return outline.Position{}, fmt.Errorf("%w: %s is not in the tree", ErrInvalidPosition, p)
	}
	return p, nil
}

// encodeOrNil archives p, mapping the zero position to a JSON null.
func (s *Session) encodeOrNil(p outline.Position) (*ArchivedPosition, error) {
	if p.IsZero() {
		return nil, nil
	}
	ap, err := s.codec.Encode(p)
	if err != nil {
		return nil, err
	}
	return &ap, nil
}

func (s *Session) watch(path string) {
	w, err := WatchDocument(path, func(changed string) {
		observability.RecordDocumentChanged()
		s.logger.Warn().Str("path", changed).Msg("bridge.Session document changed on disk")
	})
	if err != nil {
		s.logger.Warn().Str("path", path).Err(err).Msg("bridge.Session watch disabled")
		return
	}
	s.watcher = w
}

func (s *Session) closeWatcher() error {
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.watcher = nil
	return err
}
