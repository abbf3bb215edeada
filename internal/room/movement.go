package room

import (
	"github.com/hotelgo/server/internal/core/event"
)

// Walk asks the entity to walk to the given tile. The route is resolved
// on the next tick. Requests for the entity's current tile, void tiles or
// out-of-bounds tiles are dropped without a broadcast.
func (r *Room) Walk(vid int, to Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.pop.get(vid); e != nil {
		r.requestWalk(e, to)
	}
}

func (r *Room) requestWalk(e *Entity, to Point) {
	if r.tiles.Kind(to) == TileVoid {
		return
	}
	if to == e.Pos && e.pending == nil {
		return
	}
	e.goal = to
	e.pathRequested = true
	r.touch(e)
}

// SetOverride toggles forced movement for an entity whose account holds
// rights. Forced movement ignores furniture, seats and step height but
// never puts two entities on one tile.
func (r *Room) SetOverride(vid int, on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.pop.get(vid)
	if e == nil || !r.access.HasRights(e.AccountID()) {
		return
	}
	e.override = on
}

// LookTo turns an idle, standing entity towards a tile.
func (r *Room) LookTo(vid int, p Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.pop.get(vid)
	if e == nil || e.walking || p == e.Pos {
		return
	}
	if _, ok := e.statuses[StatusSit]; ok {
		return
	}
	if _, ok := e.statuses[StatusLay]; ok {
		return
	}
	rot := RotationTowards(e.Pos, p)
	if rot != e.BodyRot || rot != e.HeadRot {
		e.HeadRot, e.BodyRot = rot, rot
		e.needsUpdate = true
	}
	r.touch(e)
}

// Sit makes an idle entity sit on the floor.
func (r *Room) Sit(vid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.pop.get(vid); e != nil {
		r.sitDown(e)
	}
}

func (r *Room) sitDown(e *Entity) {
	if e.walking || e.pending != nil {
		return
	}
	if _, ok := e.statuses[StatusLay]; ok {
		return
	}
	if e.BodyRot%2 != 0 {
		e.BodyRot--
		e.HeadRot = e.BodyRot
	}
	e.setStatus(StatusSit, "0.5")
	r.touch(e)
}

// Dance starts or stops (id 0) a dance.
func (r *Room) Dance(vid int, danceID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.pop.get(vid)
	if e == nil || danceID < 0 || danceID > 4 || e.danceID == danceID {
		return
	}
	if _, ok := e.statuses[StatusSit]; ok && danceID != 0 {
		return
	}
	e.danceID = danceID
	r.touch(e)
	event.Emit(r.deps.Bus, event.EntityDanced{RoomID: r.ID, VID: vid, DanceID: danceID})
}

// Chat broadcasts a line of speech and counts as activity.
func (r *Room) Chat(vid int, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.pop.get(vid)
	if e == nil || text == "" {
		return
	}
	r.touch(e)
	event.Emit(r.deps.Bus, event.EntitySaid{RoomID: r.ID, VID: vid, Text: text})
}

// touch records activity, waking a sleeping entity.
func (r *Room) touch(e *Entity) {
	e.active = true
	if e.markActive() {
		event.Emit(r.deps.Bus, event.EntitySlept{RoomID: r.ID, VID: e.VID, Asleep: false})
	}
}

// applyPending commits a step armed on the previous tick.
func (r *Room) applyPending(e *Entity) {
	ps := e.pending
	e.pending = nil
	r.tiles.Unreserve(ps.to, e.VID)
	if !e.override && r.tiles.TerrainBlocked(ps.to) {
		// Furniture landed on the tile since the step was armed.
		e.stopWalking()
		r.settle(e)
		return
	}
	r.tiles.ReleaseOccupant(e.Pos, e.VID)
	if !r.tiles.RegisterOccupant(ps.to, e.VID) {
		// The tile was taken outside the tick (spawn, forced placement);
		// stay put and give up the walk.
		r.tiles.RegisterOccupant(e.Pos, e.VID)
		e.stopWalking()
		return
	}
	e.Pos = ps.to
	e.Z = ps.z
	e.needsUpdate = true
}

// resolvePath turns a pending walk request into a committed path.
func (r *Room) resolvePath(e *Entity) {
	e.pathRequested = false
	if e.goal == e.Pos {
		if e.walking {
			r.finishWalk(e)
		}
		return
	}
	path := FindPath(r.tiles, PathRequest{
		From:        e.Pos,
		To:          e.goal,
		FromZ:       e.Z,
		Mover:       e.VID,
		Walkthrough: r.settings.Walkthrough,
		Override:    e.override,
	})
	if len(path) == 0 {
		if e.walking {
			e.stopWalking()
		}
		return
	}
	e.path = append(path, e.Pos)
	e.step = 1
	e.walking = true
}

// advance validates the next tile of the path and arms a pending step.
func (r *Room) advance(e *Entity) {
	idx := len(e.path) - 1 - e.step
	if idx < 0 || e.path[idx] == e.Pos {
		r.finishWalk(e)
		return
	}
	next := e.path[idx]
	if Chebyshev(e.Pos, next) != 1 {
		// Moved off the path (roller, forced placement): plan again.
		e.walking = false
		e.path = nil
		e.pathRequested = true
		return
	}
	if !r.claimStep(e, next, idx == 0) {
		// Walkthrough routes ignore entities on the way; when one is
		// actually in the way, go around it instead of giving up.
		if !r.settings.Walkthrough || !r.tiles.Held(next, e.VID) || !r.detour(e) {
			e.stopWalking()
			return
		}
		idx = len(e.path) - 1 - e.step
		next = e.path[idx]
		if !r.claimStep(e, next, idx == 0) {
			e.stopWalking()
			return
		}
	}
	z := r.tiles.StandHeight(next)
	e.clearStatus(StatusSit)
	e.clearStatus(StatusLay)
	e.setStatus(StatusMove, formatMove(next, z))
	rot := RotationTowards(e.Pos, next)
	e.HeadRot, e.BodyRot = rot, rot
	e.pending = &pendingStep{to: next, z: z}
	e.step++
	e.active = true
	e.needsUpdate = true
}

// claimStep checks next and reserves it for e.
func (r *Room) claimStep(e *Entity, next Point, final bool) bool {
	var flags OccupyFlags
	if e.override {
		flags = OverrideOccupancy
	}
	return r.tiles.CanOccupy(next, e.Z, final, e.VID, flags) && r.tiles.Reserve(next, e.VID)
}

// detour replaces the rest of the walk with a route that respects every
// entity in the room.
func (r *Room) detour(e *Entity) bool {
	path := FindPath(r.tiles, PathRequest{
		From:     e.Pos,
		To:       e.goal,
		FromZ:    e.Z,
		Mover:    e.VID,
		Override: e.override,
	})
	if len(path) == 0 {
		return false
	}
	e.path = append(path, e.Pos)
	e.step = 1
	return true
}

// finishWalk ends a walk on the current tile. Only players that stop on
// the door tile leave the room; bots and pets stay.
func (r *Room) finishWalk(e *Entity) {
	e.stopWalking()
	r.settle(e)
	if e.Kind == KindPlayer && e.Pos == r.tiles.Door() {
		r.removeEntity(e, ReasonDoor)
	}
}

// settle applies seat and bed postures for the tile the entity stands on
// and snaps its height to the tile.
func (r *Room) settle(e *Entity) {
	top := r.tiles.TopItem(e.Pos)
	switch {
	case top != nil && top.Def.CanSit:
		e.clearStatus(StatusLay)
		e.setStatus(StatusSit, formatHeight(top.Def.StackHeight))
		e.HeadRot, e.BodyRot = top.Rot, top.Rot
		e.Z = top.Z
	case top != nil && top.Def.CanLay:
		e.clearStatus(StatusSit)
		e.setStatus(StatusLay, formatHeight(top.Def.StackHeight))
		e.HeadRot, e.BodyRot = top.Rot, top.Rot
		e.Z = top.Z
	default:
		if v, ok := e.statuses[StatusSit]; ok && v != "0.5" {
			e.clearStatus(StatusSit)
		}
		e.clearStatus(StatusLay)
		e.Z = r.tiles.StandHeight(e.Pos)
	}
	e.needsUpdate = true
}
