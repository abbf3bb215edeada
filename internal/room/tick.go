package room

import (
	"context"

	"go.uber.org/zap"

	"github.com/hotelgo/server/internal/core/event"
)

// Tick advances the room by one simulation step:
//
//  1. item timers
//  2. rollers
//  3. pending steps, then per-entity idle/carry/path/walk/behavior
//  4. one batched status broadcast
//  5. idle-unload accounting
//
// A fault while processing one entity or item is logged and skipped.
func (r *Room) Tick(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.tickCount++

	r.processTimers(ctx)
	if r.tickCount%int64(max(r.cfg.RollerIntervalTicks, 1)) == 0 {
		r.processRollers(ctx)
	}

	entities := r.pop.sorted()
	for _, e := range entities {
		if e.pending != nil {
			r.guard("entity", int64(e.VID), func() { r.applyPending(e) })
		}
	}
	for _, e := range entities {
		if r.pop.get(e.VID) != e {
			continue // left earlier this tick
		}
		r.guard("entity", int64(e.VID), func() { r.cycleEntity(e) })
	}

	r.flushStatuses()
	r.checkIdle()
}

func (r *Room) cycleEntity(e *Entity) {
	if e.active {
		e.active = false
	} else {
		e.idleTicks++
		if !e.asleep && r.cfg.SleepTicks > 0 && e.idleTicks >= r.cfg.SleepTicks {
			e.asleep = true
			event.Emit(r.deps.Bus, event.EntitySlept{RoomID: r.ID, VID: e.VID, Asleep: true})
		}
	}

	if e.carryTicks > 0 {
		e.carryTicks--
		if e.carryTicks == 0 && e.carryItem != 0 {
			e.carryItem = 0
			event.Emit(r.deps.Bus, event.EntityCarry{RoomID: r.ID, VID: e.VID})
		}
	}

	if e.pathRequested {
		r.resolvePath(e)
	}
	if e.walking {
		r.advance(e)
	}
	if e.Kind != KindPlayer && r.deps.Behavior != nil && r.pop.get(e.VID) == e {
		r.think(e)
	}
}

func (r *Room) think(e *Entity) {
	ctx := BehaviorContext{
		RoomID:   r.ID,
		VID:      e.VID,
		Kind:     e.Kind,
		Behavior: e.behaviorName(),
		X:        e.Pos.X,
		Y:        e.Pos.Y,
		Rot:      e.BodyRot,
		Walking:  e.walking || e.pathRequested,
		Tick:     r.tickCount,
		SizeX:    r.model.SizeX,
		SizeY:    r.model.SizeY,
	}
	if e.Bot != nil {
		ctx.Speech = e.Bot.Speech
	}
	cmds, err := r.deps.Behavior.Think(ctx)
	if err != nil {
		r.log.Warn("behavior failed", zap.Int("vid", e.VID), zap.String("behavior", ctx.Behavior), zap.Error(err))
		return
	}
	for _, c := range cmds {
		r.apply(e, c)
	}
}

func (r *Room) apply(e *Entity, c Command) {
	switch c.Op {
	case CommandWalk:
		r.requestWalk(e, Point{X: c.X, Y: c.Y})
	case CommandWander:
		radius := max(c.Radius, 1)
		p := Point{
			X: e.Pos.X + r.rng.Intn(2*radius+1) - radius,
			Y: e.Pos.Y + r.rng.Intn(2*radius+1) - radius,
		}
		if r.tiles.CanOccupy(p, r.tiles.StandHeight(p), true, e.VID, 0) {
			r.requestWalk(e, p)
		}
	case CommandSay:
		if c.Text != "" {
			event.Emit(r.deps.Bus, event.EntitySaid{RoomID: r.ID, VID: e.VID, Text: c.Text})
		}
	case CommandSit:
		r.sitDown(e)
	case CommandLook:
		p := Point{X: c.X, Y: c.Y}
		if !e.walking && p != e.Pos {
			rot := RotationTowards(e.Pos, p)
			e.HeadRot, e.BodyRot = rot, rot
			e.needsUpdate = true
		}
	default:
		r.log.Debug("unknown behavior command", zap.String("op", c.Op))
	}
}

func (r *Room) flushStatuses() {
	var batch []event.EntityStatus
	for _, e := range r.pop.sorted() {
		if !e.needsUpdate {
			continue
		}
		batch = append(batch, e.statusEvent())
		e.needsUpdate = false
	}
	if len(batch) > 0 {
		event.Emit(r.deps.Bus, event.StatusBatch{RoomID: r.ID, Statuses: batch})
	}
}

func (r *Room) checkIdle() {
	if r.pop.players() > 0 {
		r.idleTicks = 0
		r.unloadRequested = false
		return
	}
	r.idleTicks++
	if r.idleTicks >= r.cfg.IdleUnloadTicks && !r.unloadRequested {
		r.unloadRequested = true
		r.log.Debug("room idle, requesting unload", zap.Int("ticks", r.idleTicks))
		r.deps.OnIdle(r.ID)
	}
}

func (r *Room) guard(kind string, id int64, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("tick fault recovered",
				zap.String("target", kind),
				zap.Int64("id", id),
				zap.Any("panic", rec),
			)
		}
	}()
	fn()
}
