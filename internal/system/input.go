package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/hotelgo/server/internal/core/system"
	"github.com/hotelgo/server/internal/net"
	"github.com/hotelgo/server/internal/net/packet"
)

// InputSystem drains packet queues from all sessions and dispatches them
// through the packet registry. Phase 0 (Input).
type InputSystem struct {
	netServer    *net.Server
	registry     *packet.Registry
	store        *net.SessionStore
	maxPerTick   int
	onDisconnect func(*net.Session)
	log          *zap.Logger
}

func NewInputSystem(
	netServer *net.Server,
	registry *packet.Registry,
	store *net.SessionStore,
	maxPerTick int,
	onDisconnect func(*net.Session),
	log *zap.Logger,
) *InputSystem {
	if maxPerTick <= 0 {
		maxPerTick = 1
	}
	return &InputSystem{
		netServer:    netServer,
		registry:     registry,
		store:        store,
		maxPerTick:   maxPerTick,
		onDisconnect: onDisconnect,
		log:          log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	s.acceptNew()

	for id, sess := range s.store.Raw() {
		if sess.IsClosed() {
			s.onDisconnect(sess)
			s.netServer.NotifyDead(id)
			s.store.Remove(id)
			continue
		}
		s.drain(sess)
	}
}

func (s *InputSystem) acceptNew() {
	for {
		select {
		case sess := <-s.netServer.NewSessions():
			s.store.Add(sess)
		default:
			return
		}
	}
}

// drain dispatches up to maxPerTick queued frames. The state is re-read
// per frame since a handler may advance it.
func (s *InputSystem) drain(sess *net.Session) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case data := <-sess.InQueue:
			if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
				s.log.Debug("dispatch failed",
					zap.Uint64("session", sess.ID),
					zap.Error(err),
				)
			}
		default:
			return
		}
	}
}

// SessionCount returns the current number of active sessions.
func (s *InputSystem) SessionCount() int {
	return s.store.Count()
}
