package world

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hotelgo/server/internal/config"
	"github.com/hotelgo/server/internal/data"
	"github.com/hotelgo/server/internal/room"
)

// ErrRoomNotFound is returned by Load when the loader has no such room.
var ErrRoomNotFound = errors.New("room not found")

// BotSpawn is a persisted bot and the tile it was left on.
type BotSpawn struct {
	Bot  *room.BotData
	X, Y int
	Rot  int
}

// PetSpawn is a persisted pet and the tile it was left on.
type PetSpawn struct {
	Pet  *room.PetData
	X, Y int
	Rot  int
}

// RoomRecord is everything persisted about a room that the engine needs to
// bring it to life.
type RoomRecord struct {
	ID       int
	Model    string
	Settings room.Settings
	Rights   []int64
	Items    []*room.Item
	Bots     []BotSpawn
	Pets     []PetSpawn
}

// Loader reads room records from storage. It returns ErrRoomNotFound when
// the id is unknown.
type Loader interface {
	LoadRoom(ctx context.Context, id int) (*RoomRecord, error)
}

// Presence receives room population changes for the navigator.
type Presence interface {
	SetPopulation(ctx context.Context, roomID, players int) error
	Remove(ctx context.Context, roomID int) error
}

// Manager is the registry of loaded rooms. Rooms are loaded lazily on first
// entry and unloaded after they report themselves idle.
type Manager struct {
	loader   Loader
	models   *data.ModelTable
	cfg      config.RoomConfig
	deps     room.Deps
	presence Presence
	log      *zap.Logger

	loads singleflight.Group

	mu        sync.RWMutex
	rooms     map[int]*room.Room
	published map[int]int

	unloadMu sync.Mutex
	unloads  map[int]struct{}
}

// NewManager builds an empty registry. deps is the template every room is
// built with; OnIdle is always replaced. presence may be nil.
func NewManager(loader Loader, models *data.ModelTable, cfg config.RoomConfig, deps room.Deps, presence Presence, log *zap.Logger) *Manager {
	return &Manager{
		loader:    loader,
		models:    models,
		cfg:       cfg,
		deps:      deps,
		presence:  presence,
		log:       log,
		rooms:     make(map[int]*room.Room),
		published: make(map[int]int),
		unloads:   make(map[int]struct{}),
	}
}

// Get returns a loaded room or nil.
func (m *Manager) Get(id int) *room.Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[id]
}

// Rooms returns the loaded rooms ordered by id.
func (m *Manager) Rooms() []*room.Room {
	m.mu.RLock()
	out := make([]*room.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of loaded rooms.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Load returns the room, loading it from storage on first use. Concurrent
// loads of the same id share one storage round trip. A room whose model is
// missing is refused with room.ErrModelMissing and never registered.
func (m *Manager) Load(ctx context.Context, id int) (*room.Room, error) {
	if r := m.Get(id); r != nil {
		return r, nil
	}
	v, err, _ := m.loads.Do(strconv.Itoa(id), func() (any, error) {
		if r := m.Get(id); r != nil {
			return r, nil
		}
		return m.load(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*room.Room), nil
}

func (m *Manager) load(ctx context.Context, id int) (*room.Room, error) {
	rec, err := m.loader.LoadRoom(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load room %d: %w", id, err)
	}
	model := m.models.Get(rec.Model)
	if model == nil {
		m.log.Error("room model missing", zap.Int("room", id), zap.String("model", rec.Model))
		return nil, fmt.Errorf("room %d model %q: %w", id, rec.Model, room.ErrModelMissing)
	}

	deps := m.deps
	deps.OnIdle = m.RequestUnload
	r, err := room.New(rec.ID, model, rec.Settings, rec.Rights, m.cfg, deps)
	if err != nil {
		return nil, err
	}
	r.LoadItems(rec.Items)
	for _, b := range rec.Bots {
		if _, err := r.DeployBot(b.Bot, room.Point{X: b.X, Y: b.Y}, b.Rot); err != nil {
			m.log.Warn("bot not deployed", zap.Int("room", id), zap.Int64("bot", b.Bot.ID), zap.Error(err))
		}
	}
	for _, p := range rec.Pets {
		if _, err := r.DeployPet(p.Pet, room.Point{X: p.X, Y: p.Y}, p.Rot); err != nil {
			m.log.Warn("pet not deployed", zap.Int("room", id), zap.Int64("pet", p.Pet.ID), zap.Error(err))
		}
	}

	m.mu.Lock()
	m.rooms[id] = r
	m.mu.Unlock()

	m.log.Info("room loaded",
		zap.Int("room", id),
		zap.String("model", rec.Model),
		zap.Int("items", len(rec.Items)),
		zap.Int("bots", len(rec.Bots)),
		zap.Int("pets", len(rec.Pets)),
	)
	return r, nil
}

// RequestUnload marks a room for teardown at the next ProcessUnloads. It
// runs inside the room's tick, so it only records the request.
func (m *Manager) RequestUnload(roomID int) {
	m.unloadMu.Lock()
	m.unloads[roomID] = struct{}{}
	m.unloadMu.Unlock()
}

// PendingUnloads returns the number of rooms waiting for teardown.
func (m *Manager) PendingUnloads() int {
	m.unloadMu.Lock()
	defer m.unloadMu.Unlock()
	return len(m.unloads)
}

// ProcessUnloads tears down every room that asked to be unloaded. A room
// that gained a player since asking is kept and its idle counter reset.
// It must run between ticks, never concurrently with one.
func (m *Manager) ProcessUnloads(ctx context.Context) int {
	m.unloadMu.Lock()
	ids := make([]int, 0, len(m.unloads))
	for id := range m.unloads {
		ids = append(ids, id)
	}
	clear(m.unloads)
	m.unloadMu.Unlock()
	sort.Ints(ids)

	unloaded := 0
	for _, id := range ids {
		r := m.Get(id)
		if r == nil {
			continue
		}
		if r.ActivePlayers() > 0 {
			r.CancelUnload()
			continue
		}
		m.unload(ctx, r)
		unloaded++
	}
	return unloaded
}

func (m *Manager) unload(ctx context.Context, r *room.Room) {
	r.Close()
	m.mu.Lock()
	delete(m.rooms, r.ID)
	delete(m.published, r.ID)
	m.mu.Unlock()
	if m.presence != nil {
		if err := m.presence.Remove(ctx, r.ID); err != nil {
			m.log.Warn("presence remove failed", zap.Int("room", r.ID), zap.Error(err))
		}
	}
	m.log.Info("room unloaded", zap.Int("room", r.ID))
}

// PublishPresence pushes every room population that changed since the
// last call.
func (m *Manager) PublishPresence(ctx context.Context) {
	if m.presence == nil {
		return
	}
	for _, r := range m.Rooms() {
		n := r.ActivePlayers()
		m.mu.Lock()
		last, seen := m.published[r.ID]
		m.published[r.ID] = n
		m.mu.Unlock()
		if seen && last == n {
			continue
		}
		if err := m.presence.SetPopulation(ctx, r.ID, n); err != nil {
			m.log.Warn("presence publish failed", zap.Int("room", r.ID), zap.Error(err))
			m.mu.Lock()
			delete(m.published, r.ID)
			m.mu.Unlock()
		}
	}
}

// Shutdown closes every loaded room.
func (m *Manager) Shutdown(ctx context.Context) {
	for _, r := range m.Rooms() {
		m.unload(ctx, r)
	}
}
