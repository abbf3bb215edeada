package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AccountRow struct {
	ID         int64
	Username   string
	Figure     string
	Motto      string
	Banned     bool
	Online     bool
	CreatedAt  time.Time
	LastActive *time.Time
}

type AccountRepo struct {
	db *DB
}

func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// Load returns the account with the given id, or nil when none exists.
func (r *AccountRepo) Load(ctx context.Context, id int64) (*AccountRow, error) {
	row := &AccountRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, username, figure, motto, banned, online, created_at, last_active
		 FROM accounts WHERE id = $1`, id,
	).Scan(
		&row.ID, &row.Username, &row.Figure, &row.Motto,
		&row.Banned, &row.Online, &row.CreatedAt, &row.LastActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// RedeemTicket consumes a single-use login ticket and marks the account
// online. Unknown tickets return nil.
func (r *AccountRepo) RedeemTicket(ctx context.Context, ticket string) (*AccountRow, error) {
	row := &AccountRow{}
	err := r.db.Pool.QueryRow(ctx,
		`UPDATE accounts
		 SET sso_ticket = NULL, online = TRUE, last_active = NOW()
		 WHERE sso_ticket = $1
		 RETURNING id, username, figure, motto, banned, online, created_at, last_active`, ticket,
	).Scan(
		&row.ID, &row.Username, &row.Figure, &row.Motto,
		&row.Banned, &row.Online, &row.CreatedAt, &row.LastActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redeem ticket: %w", err)
	}
	return row, nil
}

// IssueTicket creates the account if needed and gives it a fresh login
// ticket.
func (r *AccountRepo) IssueTicket(ctx context.Context, username string) (string, error) {
	ticket := uuid.NewString()
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO accounts (username, sso_ticket) VALUES ($1, $2)
		 ON CONFLICT (username) DO UPDATE SET sso_ticket = EXCLUDED.sso_ticket`,
		username, ticket,
	)
	if err != nil {
		return "", fmt.Errorf("issue ticket for %s: %w", username, err)
	}
	return ticket, nil
}

func (r *AccountRepo) SetOnline(ctx context.Context, id int64, online bool) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE accounts SET online = $2, last_active = NOW() WHERE id = $1`,
		id, online,
	)
	return err
}

// ResetOnline clears every online flag, used at boot after an unclean stop.
func (r *AccountRepo) ResetOnline(ctx context.Context) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE accounts SET online = FALSE WHERE online`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
