package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/hotelgo/server/internal/core/system"
)

// PresencePublisher pushes changed room populations to the directory.
type PresencePublisher interface {
	PublishPresence(ctx context.Context)
}

// WALCheckpointer marks committed economic WAL rows as processed.
type WALCheckpointer interface {
	MarkProcessed(ctx context.Context) (int64, error)
}

// PersistenceSystem periodically publishes room populations and
// checkpoints the trade WAL. Phase 3 (Cleanup).
type PersistenceSystem struct {
	presence PresencePublisher
	wal      WALCheckpointer // nil disables checkpoints
	log      *zap.Logger

	presenceEvery time.Duration
	walEvery      time.Duration
	presenceAcc   time.Duration
	walAcc        time.Duration
}

func NewPersistenceSystem(presence PresencePublisher, wal WALCheckpointer, presenceEvery, walEvery time.Duration, log *zap.Logger) *PersistenceSystem {
	return &PersistenceSystem{
		presence:      presence,
		wal:           wal,
		log:           log,
		presenceEvery: presenceEvery,
		walEvery:      walEvery,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *PersistenceSystem) Update(dt time.Duration) {
	s.presenceAcc += dt
	if s.presenceAcc >= s.presenceEvery {
		s.presenceAcc = 0
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		s.presence.PublishPresence(ctx)
		cancel()
	}

	if s.wal == nil {
		return
	}
	s.walAcc += dt
	if s.walAcc < s.walEvery {
		return
	}
	s.walAcc = 0
	s.Checkpoint()
}

// Checkpoint marks every pending WAL row processed. Also called on
// graceful shutdown.
func (s *PersistenceSystem) Checkpoint() {
	if s.wal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	n, err := s.wal.MarkProcessed(ctx)
	if err != nil {
		s.log.Error("wal checkpoint failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Debug("wal checkpoint", zap.Int64("rows", n))
	}
}
