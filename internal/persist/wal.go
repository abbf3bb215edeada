package persist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hotelgo/server/internal/room"
)

// WALEntry represents one economic write-ahead log row.
type WALEntry struct {
	TxID   string
	TxType string // "trade"
	RoomID int
	ItemID int64
	From   int64
	To     int64
}

// WALRepo records item transfers and applies them atomically. It
// implements room.TradeStore.
type WALRepo struct {
	db *DB
}

func NewWALRepo(db *DB) *WALRepo {
	return &WALRepo{db: db}
}

// CommitTrade transfers every item in ex and logs each transfer, all in
// one transaction. A transfer whose item is no longer in the sender's
// inventory aborts the whole exchange with ErrStale.
func (r *WALRepo) CommitTrade(ctx context.Context, ex room.TradeExchange) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("trade %s begin: %w", ex.TradeID, err)
	}
	defer tx.Rollback(ctx)

	for _, t := range ex.Transfers {
		tag, err := tx.Exec(ctx,
			`UPDATE items SET owner_id = $3 WHERE id = $1 AND owner_id = $2 AND room_id IS NULL`,
			t.ItemID, t.From, t.To,
		)
		if err != nil {
			return fmt.Errorf("trade %s transfer %d: %w", ex.TradeID, t.ItemID, err)
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("trade %s transfer %d: %w", ex.TradeID, t.ItemID, ErrStale)
		}
		if err := insertWAL(ctx, tx, WALEntry{
			TxID:   ex.TradeID,
			TxType: "trade",
			RoomID: ex.RoomID,
			ItemID: t.ItemID,
			From:   t.From,
			To:     t.To,
		}); err != nil {
			return fmt.Errorf("trade %s wal: %w", ex.TradeID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("trade %s commit: %w", ex.TradeID, err)
	}
	return nil
}

func insertWAL(ctx context.Context, tx pgx.Tx, e WALEntry) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO economic_wal (tx_id, tx_type, room_id, item_id, from_acc, to_acc)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6)`,
		e.TxID, e.TxType, e.RoomID, e.ItemID, e.From, e.To,
	)
	return err
}

// MarkProcessed marks all WAL entries as processed.
func (r *WALRepo) MarkProcessed(ctx context.Context) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE economic_wal SET processed = TRUE WHERE processed = FALSE`,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Entries returns the log rows of one transaction.
func (r *WALRepo) Entries(ctx context.Context, txID string) ([]WALEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT tx_id::text, tx_type, COALESCE(room_id, 0), item_id, from_acc, to_acc
		 FROM economic_wal WHERE tx_id = $1::uuid ORDER BY id`, txID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WALEntry
	for rows.Next() {
		var e WALEntry
		if err := rows.Scan(&e.TxID, &e.TxType, &e.RoomID, &e.ItemID, &e.From, &e.To); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
