package packet

import (
	"fmt"

	"go.uber.org/zap"
)

// SessionState represents the session's current protocol phase.
type SessionState int

const (
	StateHandshake     SessionState = iota
	StateAuthenticated              // ticket accepted, not in a room
	StateInRoom                     // present in a room
	StateDisconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateHandshake:
		return "Handshake"
	case StateAuthenticated:
		return "Authenticated"
	case StateInRoom:
		return "InRoom"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// HandlerFunc is the callback signature for message handlers.
// The session is passed as an opaque value to avoid import cycles.
type HandlerFunc func(sess any, r *Reader)

type handlerEntry struct {
	fn            HandlerFunc
	allowedStates map[SessionState]bool
}

// Registry maps message headers to handlers with state-based access control.
type Registry struct {
	handlers map[uint16]*handlerEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[uint16]*handlerEntry),
		log:      log,
	}
}

// Register maps a header to a handler, restricted to the given session states.
func (reg *Registry) Register(header uint16, states []SessionState, fn HandlerFunc) {
	allowed := make(map[SessionState]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	reg.handlers[header] = &handlerEntry{
		fn:            fn,
		allowedStates: allowed,
	}
}

// Registered reports whether a handler exists for header.
func (reg *Registry) Registered(header uint16) bool {
	_, ok := reg.handlers[header]
	return ok
}

// Dispatch finds the handler for the frame's header, validates the session
// state, and calls it. Unknown headers are ignored.
func (reg *Registry) Dispatch(sess any, state SessionState, data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("short frame: %d bytes", len(data))
	}
	r := NewReader(data)
	header := r.Header()
	reg.log.Debug("RX",
		zap.Uint16("header", header),
		zap.Int("size", len(data)),
		zap.String("state", state.String()),
	)

	entry, ok := reg.handlers[header]
	if !ok {
		reg.log.Debug("unknown header", zap.Uint16("header", header), zap.String("state", state.String()))
		return nil
	}

	if !entry.allowedStates[state] {
		reg.log.Warn("header not allowed in state",
			zap.Uint16("header", header),
			zap.String("state", state.String()),
		)
		return fmt.Errorf("header %d not allowed in state %s", header, state)
	}

	return reg.safeCall(entry.fn, sess, r, header)
}

// safeCall runs a handler with panic recovery so one bad message cannot
// crash the server loop.
func (reg *Registry) safeCall(fn HandlerFunc, sess any, r *Reader, header uint16) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.Uint16("header", header),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for header %d: %v", header, rec)
		}
	}()
	fn(sess, r)
	return nil
}
