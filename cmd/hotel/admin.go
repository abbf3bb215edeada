package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hotelgo/server/internal/persist"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply (or roll back one) database migration",
	RunE:  runMigrate,
}

var ticketCmd = &cobra.Command{
	Use:   "ticket <username>",
	Short: "Issue a single-use login ticket for an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runTicket,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll back the latest migration")
}

func openDB(ctx context.Context) (*persist.DB, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	return db, log, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	db, log, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer log.Sync()

	if migrateDown {
		err = persist.RollbackMigration(ctx, db.Pool)
	} else {
		err = persist.RunMigrations(ctx, db.Pool)
	}
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	v, err := persist.MigrationVersion(ctx, db.Pool)
	if err != nil {
		return err
	}
	log.Info("schema version", zap.Int64("version", v))
	return nil
}

func runTicket(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	db, log, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer log.Sync()

	ticket, err := persist.NewAccountRepo(db).IssueTicket(ctx, args[0])
	if err != nil {
		return fmt.Errorf("issue ticket: %w", err)
	}
	fmt.Println(ticket)
	return nil
}
