package system

import (
	"time"

	"github.com/hotelgo/server/internal/core/event"
	coresys "github.com/hotelgo/server/internal/core/system"
	"github.com/hotelgo/server/internal/net"
)

// OutputSystem delivers the events raised since the previous iteration to
// the packet composers and flushes every session's buffered frames.
// Phase 2 (Output).
type OutputSystem struct {
	bus   *event.Bus
	store *net.SessionStore
}

func NewOutputSystem(bus *event.Bus, store *net.SessionStore) *OutputSystem {
	return &OutputSystem{bus: bus, store: store}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
	s.store.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}
