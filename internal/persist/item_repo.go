package persist

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hotelgo/server/internal/data"
	"github.com/hotelgo/server/internal/room"
)

// ErrStale is returned when a conditional update matched no row because
// the item changed hands or moved since it was read.
var ErrStale = errors.New("item changed concurrently")

// ItemRow is one persisted furniture item, placed or in an inventory.
type ItemRow struct {
	ID        int64
	OwnerID   int64
	BaseID    int
	RoomID    *int
	X, Y      int
	Z         float64
	Rot       int
	WallPos   string
	ExtraData string
}

// ItemRepo implements room.ItemStore.
type ItemRepo struct {
	db    *DB
	furni *data.FurniTable
}

func NewItemRepo(db *DB, furni *data.FurniTable) *ItemRepo {
	return &ItemRepo{db: db, furni: furni}
}

// LoadInventory returns the unplaced items owned by an account. Items with
// an unknown template are skipped.
func (r *ItemRepo) LoadInventory(ctx context.Context, ownerID int64) (*room.Inventory, error) {
	rows, err := r.query(ctx,
		`SELECT id, owner_id, base_id, room_id, x, y, z, rot, wall_pos, extra_data
		 FROM items WHERE owner_id = $1 AND room_id IS NULL ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load inventory %d: %w", ownerID, err)
	}
	inv := room.NewInventory()
	for _, row := range rows {
		def := r.def(row)
		if def == nil {
			continue
		}
		inv.Add(&room.InvItem{ID: row.ID, Def: def, ExtraData: row.ExtraData})
	}
	return inv, nil
}

// LoadRoomItems returns every item placed in a room.
func (r *ItemRepo) LoadRoomItems(ctx context.Context, roomID int) ([]*room.Item, error) {
	rows, err := r.query(ctx,
		`SELECT id, owner_id, base_id, room_id, x, y, z, rot, wall_pos, extra_data
		 FROM items WHERE room_id = $1 ORDER BY id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("load room items %d: %w", roomID, err)
	}
	items := make([]*room.Item, 0, len(rows))
	for _, row := range rows {
		def := r.def(row)
		if def == nil {
			continue
		}
		items = append(items, &room.Item{
			ID:        row.ID,
			OwnerID:   row.OwnerID,
			Def:       def,
			X:         row.X,
			Y:         row.Y,
			Z:         row.Z,
			Rot:       row.Rot,
			WallPos:   row.WallPos,
			ExtraData: row.ExtraData,
		})
	}
	return items, nil
}

func (r *ItemRepo) def(row ItemRow) *data.FurniDef {
	def := r.furni.Get(row.BaseID)
	if def == nil {
		r.db.log.Warn("item with unknown template skipped",
			zap.Int64("item", row.ID),
			zap.Int("base_id", row.BaseID),
		)
	}
	return def
}

func (r *ItemRepo) query(ctx context.Context, sql string, args ...any) ([]ItemRow, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ItemRow
	for rows.Next() {
		var it ItemRow
		if err := rows.Scan(
			&it.ID, &it.OwnerID, &it.BaseID, &it.RoomID,
			&it.X, &it.Y, &it.Z, &it.Rot, &it.WallPos, &it.ExtraData,
		); err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

// PlaceItem moves an inventory item into a room. The item must still be
// unplaced.
func (r *ItemRepo) PlaceItem(ctx context.Context, pos room.ItemPosition) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE items SET room_id = $2, x = $3, y = $4, z = $5, rot = $6, wall_pos = $7
		 WHERE id = $1 AND room_id IS NULL`,
		pos.ItemID, pos.RoomID, pos.X, pos.Y, pos.Z, pos.Rot, pos.WallPos,
	)
	if err != nil {
		return fmt.Errorf("place item %d: %w", pos.ItemID, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("place item %d: %w", pos.ItemID, ErrStale)
	}
	return nil
}

func (r *ItemRepo) SaveItemPosition(ctx context.Context, pos room.ItemPosition) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE items SET x = $3, y = $4, z = $5, rot = $6, wall_pos = $7
		 WHERE id = $1 AND room_id = $2`,
		pos.ItemID, pos.RoomID, pos.X, pos.Y, pos.Z, pos.Rot, pos.WallPos,
	)
	if err != nil {
		return fmt.Errorf("move item %d: %w", pos.ItemID, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("move item %d: %w", pos.ItemID, ErrStale)
	}
	return nil
}

func (r *ItemRepo) SaveItemState(ctx context.Context, itemID int64, extraData string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE items SET extra_data = $2 WHERE id = $1`, itemID, extraData)
	if err != nil {
		return fmt.Errorf("save item state %d: %w", itemID, err)
	}
	return nil
}

// PickupItem returns a placed item to ownerID's inventory.
func (r *ItemRepo) PickupItem(ctx context.Context, itemID, ownerID int64) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE items SET room_id = NULL, owner_id = $2, x = 0, y = 0, z = 0, rot = 0, wall_pos = ''
		 WHERE id = $1 AND room_id IS NOT NULL`,
		itemID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("pickup item %d: %w", itemID, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("pickup item %d: %w", itemID, ErrStale)
	}
	return nil
}

// Create inserts a new item into ownerID's inventory and returns its id.
func (r *ItemRepo) Create(ctx context.Context, ownerID int64, baseID int, extraData string) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO items (owner_id, base_id, extra_data) VALUES ($1, $2, $3) RETURNING id`,
		ownerID, baseID, extraData,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create item: %w", err)
	}
	return id, nil
}
