package bridge

import (
	"errors"
	"fmt"
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"github.com/danmuck/leobridge/internal/observability"
	"github.com/danmuck/leobridge/internal/protocol"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
	outcomePanic = "panic"
)

// Dispatcher maps action names to typed handlers. It is stateless and may be
// shared by every session of a process.
type Dispatcher struct {
	specs    map[string]ActionSpec
	handlers map[string]Handler
}

// NewDispatcher wires the default handlers and checks them against Catalogue.
func NewDispatcher() (*Dispatcher, error) {
	return newDispatcher(Catalogue, defaultHandlers())
}

func newDispatcher(catalogue []ActionSpec, handlers map[string]Handler) (*Dispatcher, error) {
	specs := make(map[string]ActionSpec, len(catalogue))
	for _, spec := range catalogue {
		if _, dup := specs[spec.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate action %q", ErrCatalogueMismatch, spec.Name)
		}
		if _, ok := handlers[spec.Name]; !ok {
			return nil, fmt.Errorf("%w: no handler for %q", ErrCatalogueMismatch, spec.Name)
		}
		specs[spec.Name] = spec
	}
	for name := range handlers {
		if _, ok := specs[name]; !ok {
			return nil, fmt.Errorf("%w: undocumented handler %q", ErrCatalogueMismatch, name)
		}
	}
	return &Dispatcher{specs: specs, handlers: handlers}, nil
}

// Spec looks up the catalogue entry for name.
func (d *Dispatcher) Spec(name string) (ActionSpec, bool) {
	spec, ok := d.specs[name]
	return spec, ok
}

// Actions lists catalogue names in sorted order.
func (d *Dispatcher) Actions() []string {
	out := make([]string, 0, len(d.specs))
	for name := range d.specs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dispatch runs one request to completion and returns exactly one response,
// tagged with the request id. Errors never end the session.
func (d *Dispatcher) Dispatch(s *Session, req protocol.Request) protocol.Response {
	s.SetActionID(req.ID)
	start := time.Now()
	if s.ChangedOnDisk() {
		s.logger.Warn().
			Int("id", req.ID).
			Str("action", req.Action).
			Str("path", s.doc.Path).
			Msg("bridge.Dispatcher.Dispatch serving a document changed on disk")
	}

	value, spec, err := d.run(s, req)
	if err != nil {
		outcome := outcomeError
		var perr *panicError
		if errors.As(err, &perr) {
			outcome = outcomePanic
		}
		observability.RecordAction(req.Action, outcome, time.Since(start))
		s.logger.Warn().
			Int("id", s.ActionID()).
			Str("action", req.Action).
			Err(err).
			Msg("bridge.Dispatcher.Dispatch action failed")
		return protocol.ErrorResponse(s.ActionID(), err)
	}

	observability.RecordAction(req.Action, outcomeOK, time.Since(start))
	s.logger.Debug().
		Int("id", s.ActionID()).
		Str("action", req.Action).
		Dur("duration", time.Since(start)).
		Msg("bridge.Dispatcher.Dispatch action done")
	return protocol.Response{ID: s.ActionID(), Key: spec.ResultKey, Value: value}
}

func (d *Dispatcher) run(s *Session, req protocol.Request) (value any, spec ActionSpec, err error) {
	spec, ok := d.specs[req.Action]
	if !ok {
		return nil, spec, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
	if spec.RequiresDocument {
		if err := s.requireDocument(); err != nil {
			return nil, spec, err
		}
	}

	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = &panicError{action: req.Action, value: r}
		}
	}()
	value, err = d.handlers[spec.Name](s, req.Param)
	return value, spec, err
}

// Call is Dispatch for in-process callers that build params from Go values.
func (d *Dispatcher) Call(s *Session, id int, action string, param any) protocol.Response {
	req := protocol.Request{ID: id, Action: action}
	if param != nil {
		raw, err := json.Marshal(param)
		if err != nil {
			s.SetActionID(id)
			return protocol.ErrorResponse(id, fmt.Errorf("%w: %v", ErrInvalidParam, err))
		}
		req.Param = raw
	}
	return d.Dispatch(s, req)
}

type panicError struct {
	action string
	value  any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("bridge: action %q panicked: %v", e.action, e.value)
}
