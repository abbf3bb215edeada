package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hotelgo/server/internal/config"
	"github.com/hotelgo/server/internal/core/event"
	coresys "github.com/hotelgo/server/internal/core/system"
	"github.com/hotelgo/server/internal/data"
	"github.com/hotelgo/server/internal/handler"
	gonet "github.com/hotelgo/server/internal/net"
	"github.com/hotelgo/server/internal/net/packet"
	"github.com/hotelgo/server/internal/persist"
	"github.com/hotelgo/server/internal/presence"
	"github.com/hotelgo/server/internal/room"
	"github.com/hotelgo/server/internal/scripting"
	"github.com/hotelgo/server/internal/system"
	"github.com/hotelgo/server/internal/world"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the room server (default)",
	RunE:  runServe,
}

const (
	presenceInterval = 5 * time.Second
	walInterval      = time.Minute
)

func runServe(cmd *cobra.Command, _ []string) error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Connect to PostgreSQL and run migrations
	printSection("database")

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL connected")

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("migrations applied")

	accountRepo := persist.NewAccountRepo(db)
	if n, err := accountRepo.ResetOnline(ctx); err != nil {
		return fmt.Errorf("reset online flags: %w", err)
	} else if n > 0 {
		log.Info("stale online flags cleared", zap.Int64("accounts", n))
	}
	fmt.Println()

	// 4. Load static data
	printSection("data")
	models, err := data.LoadModelTable(cfg.Data.ModelsFile)
	if err != nil {
		return fmt.Errorf("room models: %w", err)
	}
	printStat("room models", models.Count())

	furni, err := data.LoadFurniTable(cfg.Data.FurniFile)
	if err != nil {
		return fmt.Errorf("furniture: %w", err)
	}
	printStat("furniture", furni.Count())

	engine, err := scripting.NewEngine(cfg.Data.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer engine.Close()
	printOK("behavior scripts loaded")
	fmt.Println()

	if err := packet.SetCharset(cfg.Network.Charset); err != nil {
		return err
	}

	// 5. Repositories and presence
	itemRepo := persist.NewItemRepo(db, furni)
	botRepo := persist.NewBotRepo(db)
	roomRepo := persist.NewRoomRepo(db, itemRepo, botRepo)
	walRepo := persist.NewWALRepo(db)

	var (
		pres      world.Presence
		directory handler.RoomDirectory
	)
	if cfg.Redis.Enabled {
		pub, closeFn, err := openPresence(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer closeFn()
		pres, directory = pub, pub
		printOK("Redis presence enabled")
	}

	// 6. World and handlers
	bus := event.NewBus()
	manager := world.NewManager(roomRepo, models, cfg.Room, room.Deps{
		Items:    itemRepo,
		Trades:   walRepo,
		Rights:   roomRepo,
		Behavior: engine,
		Bus:      bus,
		Log:      log,
	}, pres, log)
	players := world.NewPlayers()

	deps := &handler.Deps{
		Accounts:  accountRepo,
		Inventory: itemRepo,
		Directory: directory,
		World:     manager,
		Players:   players,
		Config:    cfg,
		Log:       log,
	}
	pktReg := packet.NewRegistry(log)
	handler.RegisterAll(pktReg, deps)
	handler.RegisterBroadcasts(bus, deps)

	// 7. Create network server
	opts := gonet.SessionOptions{
		InQueueSize:  cfg.Network.InQueueSize,
		OutQueueSize: cfg.Network.OutQueueSize,
		ReadTimeout:  cfg.Network.ReadTimeout,
		WriteTimeout: cfg.Network.WriteTimeout,
	}
	if cfg.RateLimit.Enabled {
		opts.PacketsPerSec = cfg.RateLimit.PacketsPerSecond
	}
	netServer, err := gonet.NewServer(cfg.Network.BindAddress, opts, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()
	if cfg.Network.WebSocketAddress != "" {
		if err := netServer.ListenWebSocket(cfg.Network.WebSocketAddress); err != nil {
			netServer.Shutdown()
			return fmt.Errorf("websocket: %w", err)
		}
	}

	// 8. Create systems and register with runner
	store := gonet.NewSessionStore()
	persistSys := system.NewPersistenceSystem(manager, walRepo, presenceInterval, walInterval, log)

	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(netServer, pktReg, store, cfg.Network.MaxPacketsPerTick,
		func(sess *gonet.Session) { handler.Disconnect(sess, deps) }, log))
	runner.Register(system.NewRoomTickSystem(manager, coresys.NewPoolExecutor(cfg.Room.Workers, log), cfg.Room.TickRate, log))
	runner.Register(system.NewOutputSystem(bus, store))
	runner.Register(system.NewCleanupSystem(manager, netServer.DeadSessions(), log))
	runner.Register(persistSys)

	// 9. Start server loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.PollRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("listening on %s", netServer.Addr().String()))
	if cfg.Network.WebSocketAddress != "" {
		printReady(fmt.Sprintf("websocket on %s", cfg.Network.WebSocketAddress))
	}
	printReady(fmt.Sprintf("room tick %s, %d workers", cfg.Room.TickRate, cfg.Room.Workers))
	fmt.Println()

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			runner.Tick(now.Sub(last))
			last = now
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			stopCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			manager.Shutdown(stopCtx)
			// Deliver the leave events raised while closing rooms.
			runner.TickPhase(coresys.PhaseOutput, 0)
			persistSys.Checkpoint()
			stop()
			netServer.Shutdown()
			log.Info("server stopped")
			return nil
		}
	}
}

func openPresence(ctx context.Context, cfg config.RedisConfig) (*presence.Publisher, func(), error) {
	client, err := presence.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	pub, err := presence.New(client, cfg.PopulationKey)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	if err := pub.Reset(ctx); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("presence reset: %w", err)
	}
	return pub, func() { client.Close() }, nil
}
