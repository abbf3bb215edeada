package room

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/hotelgo/server/internal/core/event"
	"github.com/hotelgo/server/internal/data"
)

const interactionDelayTicks = 2

// PlaceItem moves an item from the actor's inventory into the room. Floor
// items use x, y and rot; wall items use wallPos. The item is only indexed
// after the store accepted the placement.
func (r *Room) PlaceItem(ctx context.Context, vid int, itemID int64, x, y, rot int, wallPos string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.pop.get(vid)
	if e == nil || e.Player == nil || e.Player.Inventory == nil {
		return ErrNotInRoom
	}
	if !r.access.HasRights(e.AccountID()) {
		return ErrNoRights
	}
	inv, ok := e.Player.Inventory.Get(itemID)
	if !ok || inv.Def == nil {
		return ErrItemNotFound
	}
	if r.trades.offered(itemID) {
		return ErrInvalidPlacement
	}

	it := &Item{
		ID:        itemID,
		OwnerID:   e.AccountID(),
		Def:       inv.Def,
		ExtraData: inv.ExtraData,
	}
	if it.IsFloor() {
		if rot%2 != 0 || rot < 0 || rot > 6 {
			return ErrInvalidPlacement
		}
		it.X, it.Y, it.Rot = x, y, rot
		z, ok := r.validFootprint(it, it.Tiles())
		if !ok {
			return ErrInvalidPlacement
		}
		it.Z = z
	} else {
		if wallPos == "" {
			return ErrInvalidPlacement
		}
		it.WallPos = wallPos
	}

	if err := r.deps.Items.PlaceItem(ctx, it.position(r.ID)); err != nil {
		r.log.Warn("place item failed", zap.Int64("item", itemID), zap.Error(err))
		r.notice(e.AccountID(), NoticePlaceFailed)
		return fmt.Errorf("place item %d: %w", itemID, err)
	}
	e.Player.Inventory.Remove(itemID)
	r.indexItem(it)
	event.Emit(r.deps.Bus, event.ItemPlaced{RoomID: r.ID, Item: it.Info()})
	r.settleOn(it.Tiles())
	return nil
}

// MoveItem moves or rotates a placed floor item. Occupants of the old and
// new footprint are re-evaluated, so a seated entity follows a rotated
// seat and stands up when the seat moves away.
func (r *Room) MoveItem(ctx context.Context, vid int, itemID int64, x, y, rot int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.pop.get(vid)
	if e == nil {
		return ErrNotInRoom
	}
	if !r.access.HasRights(e.AccountID()) {
		return ErrNoRights
	}
	it := r.items[itemID]
	if it == nil || !it.IsFloor() {
		return ErrItemNotFound
	}
	if rot%2 != 0 || rot < 0 || rot > 6 {
		return ErrInvalidPlacement
	}

	oldX, oldY, oldZ, oldRot := it.X, it.Y, it.Z, it.Rot
	oldTiles := it.Tiles()
	newTiles := AffectedTiles(it.Def.Length, it.Def.Width, x, y, rot)
	z, ok := r.validFootprint(it, newTiles)
	if !ok {
		return ErrInvalidPlacement
	}

	r.tiles.RemoveItem(it)
	it.X, it.Y, it.Z, it.Rot = x, y, z, rot
	if err := r.deps.Items.SaveItemPosition(ctx, it.position(r.ID)); err != nil {
		it.X, it.Y, it.Z, it.Rot = oldX, oldY, oldZ, oldRot
		r.tiles.AddItem(it)
		r.log.Warn("move item failed", zap.Int64("item", itemID), zap.Error(err))
		r.notice(e.AccountID(), NoticeMoveFailed)
		return fmt.Errorf("move item %d: %w", itemID, err)
	}
	r.tiles.AddItem(it)
	event.Emit(r.deps.Bus, event.ItemUpdated{RoomID: r.ID, Item: it.Info()})
	r.settleOn(append(oldTiles, newTiles...))
	return nil
}

// PickupItem returns a placed item to its owner's inventory.
func (r *Room) PickupItem(ctx context.Context, vid int, itemID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.pop.get(vid)
	if e == nil {
		return ErrNotInRoom
	}
	it := r.items[itemID]
	if it == nil {
		return ErrItemNotFound
	}
	if !r.access.HasRights(e.AccountID()) && it.OwnerID != e.AccountID() {
		return ErrNoRights
	}
	if err := r.deps.Items.PickupItem(ctx, itemID, it.OwnerID); err != nil {
		r.log.Warn("pickup item failed", zap.Int64("item", itemID), zap.Error(err))
		r.notice(e.AccountID(), NoticePickupFailed)
		return fmt.Errorf("pickup item %d: %w", itemID, err)
	}
	tiles := it.Tiles()
	r.unindexItem(it)
	if owner := r.pop.byAccountID(it.OwnerID); owner != nil && owner.Player.Inventory != nil {
		owner.Player.Inventory.Add(&InvItem{ID: it.ID, Def: it.Def, ExtraData: it.ExtraData})
	}
	event.Emit(r.deps.Bus, event.ItemRemoved{RoomID: r.ID, ItemID: itemID, PickerID: e.AccountID()})
	r.settleOn(tiles)
	return nil
}

// validFootprint checks a footprint for the item and returns its height.
// Non-walkable furniture may not cover a tile held by an entity.
func (r *Room) validFootprint(it *Item, tiles []Point) (float64, bool) {
	z, ok := r.tiles.PlacementHeight(tiles, it.ID)
	if !ok {
		return 0, false
	}
	if !it.Walkable() {
		for _, p := range tiles {
			if r.tiles.Held(p, 0) {
				return 0, false
			}
		}
	}
	return z, true
}

// settleOn re-evaluates every entity standing on the given tiles.
func (r *Room) settleOn(tiles []Point) {
	seen := make(map[int]bool, len(tiles))
	for _, p := range tiles {
		vid := r.tiles.Occupant(p)
		if vid == 0 || seen[vid] {
			continue
		}
		seen[vid] = true
		if e := r.pop.get(vid); e != nil && e.pending == nil && !e.walking {
			r.settle(e)
		}
	}
}

// UseItem triggers an item's interaction. param is the requested state
// for multi-state items and is otherwise ignored.
func (r *Room) UseItem(ctx context.Context, vid int, itemID int64, param int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.pop.get(vid)
	if e == nil {
		return ErrNotInRoom
	}
	it := r.items[itemID]
	if it == nil {
		return ErrItemNotFound
	}
	r.touch(e)
	rights := r.access.HasRights(e.AccountID())

	switch it.Def.Interaction {
	case data.InteractionRoller, data.InteractionChair, data.InteractionBed:
		return nil
	case data.InteractionGate:
		if !rights {
			return ErrNoRights
		}
		next := "1"
		if it.ExtraData == "1" {
			next = "0"
			for _, p := range it.Tiles() {
				if r.tiles.Held(p, 0) {
					return ErrInvalidPlacement
				}
			}
		}
		return r.setItemState(ctx, e, it, next)
	case data.InteractionDice:
		if !r.adjacent(e, it) || it.timer > 0 {
			return nil
		}
		it.ExtraData = "-1"
		r.startTimer(it, e.VID)
		event.Emit(r.deps.Bus, event.ItemUpdated{RoomID: r.ID, Item: it.Info()})
		return nil
	case data.InteractionVending:
		if !r.adjacent(e, it) || it.timer > 0 || len(it.Def.VendingIDs) == 0 {
			return nil
		}
		if !e.walking {
			rot := RotationTowards(e.Pos, it.Pos())
			e.HeadRot, e.BodyRot = rot, rot
			e.needsUpdate = true
		}
		it.ExtraData = "1"
		r.startTimer(it, e.VID)
		event.Emit(r.deps.Bus, event.ItemUpdated{RoomID: r.ID, Item: it.Info()})
		return nil
	default:
		if it.Def.RequiresRights && !rights {
			return ErrNoRights
		}
		modes := it.Def.InteractionModes
		if modes <= 1 {
			return nil
		}
		next := (it.stateIndex() + 1) % modes
		if param >= 0 && param < modes && param != it.stateIndex() {
			next = param
		}
		return r.setItemState(ctx, e, it, strconv.Itoa(next))
	}
}

func (r *Room) setItemState(ctx context.Context, e *Entity, it *Item, state string) error {
	if err := r.deps.Items.SaveItemState(ctx, it.ID, state); err != nil {
		r.log.Warn("save item state failed", zap.Int64("item", it.ID), zap.Error(err))
		r.notice(e.AccountID(), NoticeUseFailed)
		return fmt.Errorf("use item %d: %w", it.ID, err)
	}
	it.ExtraData = state
	r.tiles.Refresh(it)
	event.Emit(r.deps.Bus, event.ItemUpdated{RoomID: r.ID, Item: it.Info()})
	return nil
}

func (r *Room) adjacent(e *Entity, it *Item) bool {
	for _, p := range it.Tiles() {
		if Chebyshev(e.Pos, p) <= 1 {
			return true
		}
	}
	return false
}

func (r *Room) startTimer(it *Item, vid int) {
	it.timer = interactionDelayTicks
	it.timerActor = vid
	r.timers[it.ID] = it
}

// processTimers fires delayed interactions that are due this tick.
func (r *Room) processTimers(ctx context.Context) {
	if len(r.timers) == 0 {
		return
	}
	due := make([]*Item, 0, len(r.timers))
	for _, it := range r.timers {
		due = append(due, it)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	for _, it := range due {
		r.guard("item", it.ID, func() {
			it.timer--
			if it.timer > 0 {
				return
			}
			delete(r.timers, it.ID)
			r.fireTimer(ctx, it)
		})
	}
}

func (r *Room) fireTimer(ctx context.Context, it *Item) {
	switch it.Def.Interaction {
	case data.InteractionDice:
		result := strconv.Itoa(r.rng.Intn(6) + 1)
		if err := r.deps.Items.SaveItemState(ctx, it.ID, result); err != nil {
			r.log.Warn("save dice result failed", zap.Int64("item", it.ID), zap.Error(err))
			it.ExtraData = "0"
		} else {
			it.ExtraData = result
		}
	case data.InteractionVending:
		it.ExtraData = "0"
		if e := r.pop.get(it.timerActor); e != nil {
			e.carryItem = it.Def.VendingIDs[r.rng.Intn(len(it.Def.VendingIDs))]
			e.carryTicks = r.cfg.CarryTicks
			event.Emit(r.deps.Bus, event.EntityCarry{RoomID: r.ID, VID: e.VID, ItemID: e.carryItem})
		}
	}
	it.timerActor = 0
	event.Emit(r.deps.Bus, event.ItemUpdated{RoomID: r.ID, Item: it.Info()})
}
