package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/hotelgo/server/internal/core/system"
)

// Unloader performs the room unloads requested by idle rooms.
type Unloader interface {
	ProcessUnloads(ctx context.Context) int
}

// CleanupSystem unloads idle rooms once the tick round that requested it
// has finished and forgets dead session ids. Phase 3 (Cleanup).
type CleanupSystem struct {
	world Unloader
	dead  <-chan uint64
	log   *zap.Logger
}

func NewCleanupSystem(world Unloader, dead <-chan uint64, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: world, dead: dead, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	if n := s.world.ProcessUnloads(context.Background()); n > 0 {
		s.log.Debug("rooms unloaded", zap.Int("count", n))
	}
	for {
		select {
		case id := <-s.dead:
			s.log.Debug("session released", zap.Uint64("session", id))
		default:
			return
		}
	}
}
