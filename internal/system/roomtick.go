package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/hotelgo/server/internal/core/system"
	"github.com/hotelgo/server/internal/room"
)

// RoomSource lists the rooms due for simulation.
type RoomSource interface {
	Rooms() []*room.Room
}

// RoomTickSystem advances every loaded room once per tick period. Rooms
// tick in parallel on the executor; a room never ticks concurrently with
// itself. Phase 1 (Update).
type RoomTickSystem struct {
	rooms RoomSource
	exec  coresys.Executor
	rate  time.Duration
	acc   time.Duration
	ticks int64
	log   *zap.Logger
}

func NewRoomTickSystem(rooms RoomSource, exec coresys.Executor, rate time.Duration, log *zap.Logger) *RoomTickSystem {
	return &RoomTickSystem{rooms: rooms, exec: exec, rate: rate, log: log}
}

func (s *RoomTickSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

// Update accumulates loop time and runs one round of room ticks once a
// full period has passed. A stalled loop runs a single catch-up round
// rather than a burst.
func (s *RoomTickSystem) Update(dt time.Duration) {
	s.acc += dt
	if s.acc < s.rate {
		return
	}
	s.acc -= s.rate
	if s.acc >= s.rate {
		s.log.Warn("room ticks behind schedule", zap.Duration("backlog", s.acc))
		s.acc = 0
	}
	s.RunOnce(context.Background())
}

// RunOnce ticks every loaded room immediately.
func (s *RoomTickSystem) RunOnce(ctx context.Context) {
	rooms := s.rooms.Rooms()
	tasks := make([]coresys.Task, 0, len(rooms))
	for _, r := range rooms {
		tasks = append(tasks, func(ctx context.Context) {
			r.Tick(ctx)
		})
	}
	start := time.Now()
	s.exec.Run(ctx, tasks)
	s.ticks++
	if elapsed := time.Since(start); elapsed > s.rate/2 {
		s.log.Warn("slow room tick round", zap.Int("rooms", len(rooms)), zap.Duration("elapsed", elapsed))
	}
}

// Rounds reports how many tick rounds have run.
func (s *RoomTickSystem) Rounds() int64 { return s.ticks }
