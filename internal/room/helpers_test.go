package room

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hotelgo/server/internal/config"
	"github.com/hotelgo/server/internal/core/event"
	"github.com/hotelgo/server/internal/data"
)

var (
	defBlock  = &data.FurniDef{ID: 1, Name: "table", Kind: data.FurniFloor, Width: 1, Length: 1, StackHeight: 1, CanStack: true, AllowTrade: true, Interaction: data.InteractionDefault, InteractionModes: 1}
	defChair  = &data.FurniDef{ID: 2, Name: "chair", Kind: data.FurniFloor, Width: 1, Length: 1, StackHeight: 1, CanSit: true, AllowTrade: true, Interaction: data.InteractionChair, InteractionModes: 1}
	defRoller = &data.FurniDef{ID: 3, Name: "roller", Kind: data.FurniFloor, Width: 1, Length: 1, StackHeight: 0.5, CanStack: true, IsWalkable: true, Interaction: data.InteractionRoller, InteractionModes: 1}
	defRug    = &data.FurniDef{ID: 4, Name: "rug", Kind: data.FurniFloor, Width: 1, Length: 1, StackHeight: 0, CanStack: true, IsWalkable: true, AllowTrade: true, Interaction: data.InteractionDefault, InteractionModes: 1}
	defLamp   = &data.FurniDef{ID: 5, Name: "lamp", Kind: data.FurniFloor, Width: 1, Length: 1, StackHeight: 1, Interaction: data.InteractionDefault, InteractionModes: 2, AllowTrade: true}
	defGate   = &data.FurniDef{ID: 6, Name: "gate", Kind: data.FurniFloor, Width: 1, Length: 1, StackHeight: 1, Interaction: data.InteractionGate, InteractionModes: 2}
	defDice   = &data.FurniDef{ID: 7, Name: "dice", Kind: data.FurniFloor, Width: 1, Length: 1, StackHeight: 1, Interaction: data.InteractionDice, InteractionModes: 7}
	defVendor = &data.FurniDef{ID: 8, Name: "fridge", Kind: data.FurniFloor, Width: 1, Length: 1, StackHeight: 1, Interaction: data.InteractionVending, InteractionModes: 2, VendingIDs: []int{4}}
	defNoTrad = &data.FurniDef{ID: 9, Name: "gift", Kind: data.FurniFloor, Width: 1, Length: 1, StackHeight: 1, Interaction: data.InteractionDefault, InteractionModes: 1}
	defSofa   = &data.FurniDef{ID: 10, Name: "sofa", Kind: data.FurniFloor, Width: 2, Length: 1, StackHeight: 1, CanSit: true, AllowTrade: true, Interaction: data.InteractionChair, InteractionModes: 1}
)

const (
	ownerID int64 = 100
	aliceID int64 = 101
	bobID   int64 = 102
)

// flatMap returns a size×size heightmap of zeros.
func flatMap(size int) string {
	row := strings.Repeat("0", size)
	rows := make([]string, size)
	for i := range rows {
		rows[i] = row
	}
	return strings.Join(rows, "\n")
}

func mustModel(t testing.TB, hm string, doorX, doorY int) *data.RoomModel {
	t.Helper()
	m, err := data.ParseHeightmap("test", hm, doorX, doorY, 2)
	require.NoError(t, err)
	return m
}

// memStore is an in-memory ItemStore, TradeStore and RightsStore.
type memStore struct {
	mu        sync.Mutex
	positions map[int64]ItemPosition
	states    map[int64]string
	picked    []int64
	trades    []TradeExchange
	rights    map[int64]bool
	failNext  error
}

func newMemStore() *memStore {
	return &memStore{
		positions: make(map[int64]ItemPosition),
		states:    make(map[int64]string),
		rights:    make(map[int64]bool),
	}
}

func (s *memStore) fail() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *memStore) PlaceItem(_ context.Context, pos ItemPosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	s.positions[pos.ItemID] = pos
	return nil
}

func (s *memStore) SaveItemPosition(_ context.Context, pos ItemPosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	s.positions[pos.ItemID] = pos
	return nil
}

func (s *memStore) SaveItemState(_ context.Context, itemID int64, extra string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	s.states[itemID] = extra
	return nil
}

func (s *memStore) PickupItem(_ context.Context, itemID, _ int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	delete(s.positions, itemID)
	s.picked = append(s.picked, itemID)
	return nil
}

func (s *memStore) CommitTrade(_ context.Context, ex TradeExchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	s.trades = append(s.trades, ex)
	return nil
}

func (s *memStore) AddRight(_ context.Context, _ int, accountID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	s.rights[accountID] = true
	return nil
}

func (s *memStore) RemoveRight(_ context.Context, _ int, accountID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	delete(s.rights, accountID)
	return nil
}

var errStore = errors.New("store unavailable")

type fixture struct {
	room   *Room
	store  *memStore
	bus    *event.Bus
	clock  *time.Time
	idle   []int
	config config.RoomConfig
}

type fixtureOpt func(*Settings, *config.RoomConfig, *Deps)

func withSettings(fn func(*Settings)) fixtureOpt {
	return func(s *Settings, _ *config.RoomConfig, _ *Deps) { fn(s) }
}

func withConfig(fn func(*config.RoomConfig)) fixtureOpt {
	return func(_ *Settings, c *config.RoomConfig, _ *Deps) { fn(c) }
}

func withBehavior(b Behavior) fixtureOpt {
	return func(_ *Settings, _ *config.RoomConfig, d *Deps) { d.Behavior = b }
}

// newFixture builds a room on a flat 10×10 map with its door at (0,0).
func newFixture(t testing.TB, opts ...fixtureOpt) *fixture {
	return newFixtureModel(t, mustModel(t, flatMap(10), 0, 0), opts...)
}

func newFixtureModel(t testing.TB, model *data.RoomModel, opts ...fixtureOpt) *fixture {
	t.Helper()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	f := &fixture{
		store:  newMemStore(),
		bus:    event.NewBus(),
		clock:  &now,
		config: config.Default().Room,
	}
	settings := Settings{Name: "test", OwnerID: ownerID, MaxUsers: 25, TradeMode: TradeAll}
	deps := Deps{
		Bus:  f.bus,
		Log:  zaptest.NewLogger(t),
		Now:  func() time.Time { return *f.clock },
		Rand: rand.New(rand.NewSource(1)),
	}
	for _, opt := range opts {
		opt(&settings, &f.config, &deps)
	}
	deps.Items = f.store
	deps.Trades = f.store
	deps.Rights = f.store
	deps.OnIdle = func(id int) { f.idle = append(f.idle, id) }

	r, err := New(1, model, settings, nil, f.config, deps)
	require.NoError(t, err)
	f.room = r
	return f
}

func (f *fixture) enter(t testing.TB, accountID int64, at Point, items ...*InvItem) *Entity {
	t.Helper()
	e, err := f.room.Enter(EnterRequest{
		Player: &PlayerData{
			AccountID: accountID,
			Username:  "user",
			Inventory: NewInventory(items...),
		},
		Spawn: &at,
	})
	require.NoError(t, err)
	require.Equal(t, at, e.Pos)
	return e
}

func (f *fixture) place(id int64, def *data.FurniDef, x, y, rot int) *Item {
	it := &Item{ID: id, OwnerID: ownerID, Def: def, X: x, Y: y, Rot: rot}
	it.Z, _ = f.room.tiles.PlacementHeight(AffectedTiles(def.Length, def.Width, x, y, rot), id)
	f.room.LoadItems([]*Item{it})
	return it
}

func (f *fixture) ticks(n int) {
	for i := 0; i < n; i++ {
		f.room.Tick(context.Background())
	}
}
