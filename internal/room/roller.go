package room

import (
	"context"

	"go.uber.org/zap"

	"github.com/hotelgo/server/internal/core/event"
)

// processRollers moves everything resting on a roller one tile in the
// roller's facing direction. Rollers run in id order; an item or entity
// moved by one roller is not moved again this tick.
//
// Entities with an armed pending step are left to their walk. An entity
// that only has a walk request, or is idle, is rolled first and plans its
// route from the new tile.
func (r *Room) processRollers(ctx context.Context) {
	if len(r.rollers) == 0 {
		return
	}
	movedItems := make(map[int64]bool)
	movedEntities := make(map[int]bool)
	rollers := append([]*Item(nil), r.rollers...)
	for _, roller := range rollers {
		r.guard("roller", roller.ID, func() {
			r.roll(ctx, roller, movedItems, movedEntities)
		})
	}
}

func (r *Room) roll(ctx context.Context, roller *Item, movedItems map[int64]bool, movedEntities map[int]bool) {
	from := roller.Pos()
	to := from.Step(roller.Rot)
	if r.tiles.Kind(to) == TileVoid {
		return
	}
	ev := event.RollerMoved{RoomID: r.ID, RollerID: roller.ID}

	// Items keep their height above the roller surface. A tile an entity
	// stands on or is about to step onto takes no items.
	if !r.tiles.Held(to, 0) {
		destBase, destOK := r.tiles.PlacementHeight([]Point{to}, 0)
		riders := append([]*Item(nil), r.tiles.ItemsAt(from)...)
		for _, it := range riders {
			if !destOK {
				break
			}
			if it.ID == roller.ID || movedItems[it.ID] || it.Def.IsRoller() || it.Pos() != from || it.Z < roller.Top() {
				continue
			}
			newTiles := AffectedTiles(it.Def.Length, it.Def.Width, to.X, to.Y, it.Rot)
			if _, ok := r.tiles.PlacementHeight(newTiles, it.ID); !ok {
				continue
			}
			fromZ := it.Z
			toZ := destBase + (it.Z - roller.Top())
			r.tiles.RemoveItem(it)
			it.X, it.Y, it.Z = to.X, to.Y, toZ
			if err := r.deps.Items.SaveItemPosition(ctx, it.position(r.ID)); err != nil {
				it.X, it.Y, it.Z = from.X, from.Y, fromZ
				r.tiles.AddItem(it)
				r.log.Warn("roller persist failed", zap.Int64("item", it.ID), zap.Error(err))
				continue
			}
			r.tiles.AddItem(it)
			movedItems[it.ID] = true
			ev.Items = append(ev.Items, event.RolledObject{
				ID: it.ID, FromX: from.X, FromY: from.Y, ToX: to.X, ToY: to.Y, FromZ: fromZ, ToZ: toZ,
			})
		}
	}

	if vid := r.tiles.Occupant(from); vid != 0 && !movedEntities[vid] {
		e := r.pop.get(vid)
		if e != nil && e.pending == nil && r.tiles.CanOccupy(to, e.Z, true, vid, 0) {
			fromZ := e.Z
			r.tiles.ReleaseOccupant(from, vid)
			r.tiles.RegisterOccupant(to, vid)
			e.Pos = to
			rot := RotationTowards(from, to)
			e.HeadRot, e.BodyRot = rot, rot
			r.settle(e)
			if e.walking {
				e.walking = false
				e.path = nil
				e.pathRequested = true
			}
			movedEntities[vid] = true
			ev.Entities = append(ev.Entities, event.RolledObject{
				ID: int64(vid), FromX: from.X, FromY: from.Y, ToX: to.X, ToY: to.Y, FromZ: fromZ, ToZ: e.Z,
			})
		}
	}

	if len(ev.Items) > 0 || len(ev.Entities) > 0 {
		event.Emit(r.deps.Bus, ev)
	}
}
