package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hotelgo/server/internal/room"
	"github.com/hotelgo/server/internal/world"
)

// RoomRepo loads rooms for the world manager and persists their rights
// lists. It implements world.Loader and room.RightsStore.
type RoomRepo struct {
	db    *DB
	items *ItemRepo
	bots  *BotRepo
}

func NewRoomRepo(db *DB, items *ItemRepo, bots *BotRepo) *RoomRepo {
	return &RoomRepo{db: db, items: items, bots: bots}
}

// LoadRoom reads a room with its rights, items, bots and pets.
func (r *RoomRepo) LoadRoom(ctx context.Context, id int) (*world.RoomRecord, error) {
	rec := &world.RoomRecord{ID: id}
	var (
		s        = &rec.Settings
		door     int
		trade    int
		ownerRaw *string
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT r.name, r.description, r.owner_id, a.username, r.model, r.category, r.tags,
		        r.max_users, r.door_mode, r.password_hash, r.trade_mode, r.walkthrough
		 FROM rooms r LEFT JOIN accounts a ON a.id = r.owner_id
		 WHERE r.id = $1`, id,
	).Scan(
		&s.Name, &s.Description, &s.OwnerID, &ownerRaw, &rec.Model, &s.Category, &s.Tags,
		&s.MaxUsers, &door, &s.PasswordHash, &trade, &s.Walkthrough,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, world.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("room %d: %w", id, err)
	}
	if ownerRaw != nil {
		s.OwnerName = *ownerRaw
	}
	s.DoorMode = room.DoorMode(door)
	s.TradeMode = room.TradeMode(trade)

	if rec.Rights, err = r.loadRights(ctx, id); err != nil {
		return nil, err
	}
	if rec.Items, err = r.items.LoadRoomItems(ctx, id); err != nil {
		return nil, err
	}
	if rec.Bots, err = r.bots.LoadRoomBots(ctx, id); err != nil {
		return nil, err
	}
	if rec.Pets, err = r.bots.LoadRoomPets(ctx, id); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *RoomRepo) loadRights(ctx context.Context, roomID int) ([]int64, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT account_id FROM room_rights WHERE room_id = $1 ORDER BY account_id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("room %d rights: %w", roomID, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("room %d rights: %w", roomID, err)
	}
	return ids, nil
}

func (r *RoomRepo) AddRight(ctx context.Context, roomID int, accountID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO room_rights (room_id, account_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		roomID, accountID,
	)
	return err
}

func (r *RoomRepo) RemoveRight(ctx context.Context, roomID int, accountID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM room_rights WHERE room_id = $1 AND account_id = $2`,
		roomID, accountID,
	)
	return err
}

// Create inserts a room and returns its id.
func (r *RoomRepo) Create(ctx context.Context, model string, s room.Settings) (int, error) {
	var id int
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO rooms (owner_id, name, description, model, category, tags, max_users,
		                    door_mode, password_hash, trade_mode, walkthrough)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		s.OwnerID, s.Name, s.Description, model, s.Category, nonNil(s.Tags), s.MaxUsers,
		int(s.DoorMode), s.PasswordHash, int(s.TradeMode), s.Walkthrough,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create room: %w", err)
	}
	return id, nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
