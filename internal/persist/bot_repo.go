package persist

import (
	"context"
	"fmt"

	"github.com/hotelgo/server/internal/room"
	"github.com/hotelgo/server/internal/world"
)

type BotRepo struct {
	db *DB
}

func NewBotRepo(db *DB) *BotRepo {
	return &BotRepo{db: db}
}

// LoadRoomBots returns the bots deployed in a room with their saved tiles.
func (r *BotRepo) LoadRoomBots(ctx context.Context, roomID int) ([]world.BotSpawn, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, owner_id, name, figure, behavior, speech, x, y, rot
		 FROM bots WHERE room_id = $1 ORDER BY id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("room %d bots: %w", roomID, err)
	}
	defer rows.Close()

	var out []world.BotSpawn
	for rows.Next() {
		b := &room.BotData{}
		var sp world.BotSpawn
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Figure, &b.Behavior, &b.Speech,
			&sp.X, &sp.Y, &sp.Rot); err != nil {
			return nil, fmt.Errorf("room %d bots: %w", roomID, err)
		}
		sp.Bot = b
		out = append(out, sp)
	}
	return out, rows.Err()
}

// LoadRoomPets returns the pets placed in a room with their saved tiles.
func (r *BotRepo) LoadRoomPets(ctx context.Context, roomID int) ([]world.PetSpawn, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, owner_id, name, type, behavior, x, y, rot
		 FROM pets WHERE room_id = $1 ORDER BY id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("room %d pets: %w", roomID, err)
	}
	defer rows.Close()

	var out []world.PetSpawn
	for rows.Next() {
		p := &room.PetData{}
		var sp world.PetSpawn
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Type, &p.Behavior,
			&sp.X, &sp.Y, &sp.Rot); err != nil {
			return nil, fmt.Errorf("room %d pets: %w", roomID, err)
		}
		sp.Pet = p
		out = append(out, sp)
	}
	return out, rows.Err()
}
