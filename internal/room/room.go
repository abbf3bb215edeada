package room

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hotelgo/server/internal/config"
	"github.com/hotelgo/server/internal/core/event"
	"github.com/hotelgo/server/internal/data"
)

// DoorMode controls who may enter without rights.
type DoorMode int

const (
	DoorOpen DoorMode = iota
	DoorLocked
	DoorPassword
)

// TradeMode controls who may start trades in the room.
type TradeMode int

const (
	TradeDisabled TradeMode = iota
	TradeRightsOnly
	TradeAll
)

// Settings are the mutable, owner-editable properties of a room.
type Settings struct {
	Name         string
	Description  string
	OwnerID      int64
	OwnerName    string
	Category     int
	Tags         []string
	MaxUsers     int
	DoorMode     DoorMode
	PasswordHash []byte
	TradeMode    TradeMode
	Walkthrough  bool
}

// Deps are the collaborators a room calls out to.
type Deps struct {
	Items    ItemStore
	Trades   TradeStore
	Rights   RightsStore
	Behavior Behavior // nil disables bot and pet behavior
	Bus      *event.Bus
	Log      *zap.Logger
	Now      func() time.Time
	Rand     *rand.Rand
	// OnIdle is called once when the room has been empty for the
	// configured number of ticks.
	OnIdle func(roomID int)
}

// Room is one loaded instance of a room. It owns its entity and item
// registries; every exported method is safe to call from any goroutine.
type Room struct {
	ID int

	mu       sync.Mutex
	model    *data.RoomModel
	settings Settings
	cfg      config.RoomConfig
	deps     Deps
	log      *zap.Logger
	rng      *rand.Rand

	tiles   *TileMap
	pop     *population
	access  *access
	items   map[int64]*Item
	rollers []*Item         // sorted by id
	timers  map[int64]*Item // items with a running interaction timer
	trades  *tradeBook

	tickCount       int64
	idleTicks       int
	unloadRequested bool
	closed          bool
}

// New builds a room from its model. A nil model is refused so a room that
// failed to load is never scheduled.
func New(id int, model *data.RoomModel, settings Settings, rights []int64, cfg config.RoomConfig, deps Deps) (*Room, error) {
	if model == nil {
		return nil, ErrModelMissing
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Bus == nil {
		deps.Bus = event.NewBus()
	}
	if deps.OnIdle == nil {
		deps.OnIdle = func(int) {}
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))
	}
	return &Room{
		ID:       id,
		model:    model,
		settings: settings,
		cfg:      cfg,
		deps:     deps,
		log:      deps.Log.With(zap.Int("room", id)),
		rng:      rng,
		tiles:    NewTileMap(model, cfg.MaxStepHeight),
		pop:      newPopulation(),
		access:   newAccess(settings.OwnerID, rights, deps.Now),
		items:    make(map[int64]*Item),
		timers:   make(map[int64]*Item),
		trades:   newTradeBook(),
	}, nil
}

// HashPassword returns the stored form of a room password.
func HashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
}

func (r *Room) Model() *data.RoomModel { return r.model }

func (r *Room) Settings() Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

// UpdateSettings replaces the room settings. The owner cannot change.
func (r *Room) UpdateSettings(s Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.OwnerID = r.settings.OwnerID
	r.settings = s
}

func (r *Room) IsBanned(accountID int64) bool  { return r.access.IsBanned(accountID) }
func (r *Room) HasRights(accountID int64) bool { return r.access.HasRights(accountID) }
func (r *Room) IsOwner(accountID int64) bool   { return r.access.IsOwner(accountID) }
func (r *Room) Rights() []int64                { return r.access.rightsList() }

// ActivePlayers counts present players; bots and pets do not count.
func (r *Room) ActivePlayers() int { return r.pop.players() }

// EntityCount counts every present entity.
func (r *Room) EntityCount() int { return r.pop.count() }

// Entity returns the entity with the given virtual id, or nil. The
// returned pointer must only be read while no tick is running.
func (r *Room) Entity(vid int) *Entity { return r.pop.get(vid) }

// EntityByAccount returns a present player's entity, or nil.
func (r *Room) EntityByAccount(accountID int64) *Entity { return r.pop.byAccountID(accountID) }

// Item returns a placed item, or nil.
func (r *Room) Item(id int64) *Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id]
}

// Tiles exposes the tile map for read-only inspection.
func (r *Room) Tiles() *TileMap { return r.tiles }

// TickCount returns how many ticks the room has run.
func (r *Room) TickCount() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickCount
}

// EnterRequest describes a player asking to enter the room.
type EnterRequest struct {
	Player   *PlayerData
	Password string
	Spawn    *Point // explicit target instead of the door, e.g. a teleporter
}

// Enter admits a player. Owners and rights holders bypass the capacity
// and door checks; only the owner bypasses bans.
func (r *Room) Enter(req EnterRequest) (*Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRoomClosed
	}
	acc := req.Player.AccountID
	if old := r.pop.byAccountID(acc); old != nil {
		r.removeEntity(old, ReasonReenter)
	}

	owner := r.access.IsOwner(acc)
	rights := r.access.HasRights(acc)
	if !owner && r.access.IsBanned(acc) {
		return nil, ErrBanned
	}
	if !rights {
		if r.settings.MaxUsers > 0 && r.pop.players() >= r.settings.MaxUsers {
			return nil, ErrRoomFull
		}
		switch r.settings.DoorMode {
		case DoorLocked:
			return nil, ErrDoorLocked
		case DoorPassword:
			if bcrypt.CompareHashAndPassword(r.settings.PasswordHash, []byte(req.Password)) != nil {
				return nil, ErrWrongPassword
			}
		}
	}

	target := r.tiles.Door()
	if req.Spawn != nil {
		target = *req.Spawn
	}
	spawn, ok := r.spawnPoint(target)
	if !ok {
		return nil, ErrNoSpawn
	}
	e := r.pop.add(KindPlayer, func(e *Entity) {
		e.Player = req.Player
	})
	r.place(e, spawn, r.model.DoorDir)
	switch {
	case owner:
		e.setStatus(StatusControl, "useradmin")
	case rights:
		e.setStatus(StatusControl, "1")
	}

	r.idleTicks = 0
	r.unloadRequested = false
	event.Emit(r.deps.Bus, e.enteredEvent(r.ID))
	r.log.Debug("entity entered", zap.Int("vid", e.VID), zap.Int64("account", acc), zap.Stringer("pos", spawn))
	return e, nil
}

// DeployBot places a stored bot at pos.
func (r *Room) DeployBot(b *BotData, pos Point, rot int) (*Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRoomClosed
	}
	if r.pop.hasBot(b.ID) {
		return nil, ErrAlreadyPresent
	}
	spawn, ok := r.spawnPoint(pos)
	if !ok {
		return nil, ErrNoSpawn
	}
	e := r.pop.add(KindBot, func(e *Entity) { e.Bot = b })
	r.place(e, spawn, rot)
	event.Emit(r.deps.Bus, e.enteredEvent(r.ID))
	return e, nil
}

// DeployPet places a stored pet at pos.
func (r *Room) DeployPet(p *PetData, pos Point, rot int) (*Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRoomClosed
	}
	if r.pop.hasPet(p.ID) {
		return nil, ErrAlreadyPresent
	}
	spawn, ok := r.spawnPoint(pos)
	if !ok {
		return nil, ErrNoSpawn
	}
	e := r.pop.add(KindPet, func(e *Entity) { e.Pet = p })
	r.place(e, spawn, rot)
	event.Emit(r.deps.Bus, e.enteredEvent(r.ID))
	return e, nil
}

// place commits a freshly created entity to its first tile.
func (r *Room) place(e *Entity, p Point, rot int) {
	e.Pos = p
	e.HeadRot, e.BodyRot = rot&7, rot&7
	r.tiles.RegisterOccupant(p, e.VID)
	r.settle(e)
	e.needsUpdate = true
}

// spawnPoint returns target if it is free, otherwise the nearest free tile
// within three tiles, searched ring by ring.
func (r *Room) spawnPoint(target Point) (Point, bool) {
	free := func(p Point) bool {
		return r.tiles.CanOccupy(p, r.tiles.StandHeight(p), true, 0, 0)
	}
	if free(target) {
		return target, true
	}
	for radius := 1; radius <= 3; radius++ {
		for dx := -radius; dx <= radius; dx++ {
			for dy := -radius; dy <= radius; dy++ {
				if max(abs(dx), abs(dy)) != radius {
					continue
				}
				p := Point{X: target.X + dx, Y: target.Y + dy}
				if free(p) {
					return p, true
				}
			}
		}
	}
	return Point{}, false
}

// Leave removes an entity from the room. Unknown ids are ignored.
func (r *Room) Leave(vid int, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.pop.get(vid); e != nil {
		r.removeEntity(e, reason)
	}
}

// removeEntity closes the entity's trade, frees its tiles and finally
// releases its virtual id.
func (r *Room) removeEntity(e *Entity, reason string) {
	r.closeTrade(e.VID, e.VID)
	if e.pending != nil {
		r.tiles.Unreserve(e.pending.to, e.VID)
		e.pending = nil
	}
	r.tiles.ReleaseOccupant(e.Pos, e.VID)
	r.pop.remove(e.VID)
	event.Emit(r.deps.Bus, event.EntityLeft{
		RoomID:    r.ID,
		VID:       e.VID,
		AccountID: e.AccountID(),
		Reason:    reason,
	})
	r.log.Debug("entity left", zap.Int("vid", e.VID), zap.String("reason", reason))
}

// Close tears the room down: every trade is closed and every entity
// removed. Further entry attempts fail with ErrRoomClosed.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for _, e := range r.pop.sorted() {
		r.removeEntity(e, ReasonUnload)
	}
	event.Emit(r.deps.Bus, event.RoomUnloaded{RoomID: r.ID})
}

func (r *Room) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// CancelUnload clears a pending unload request, used when the room
// registry finds the room occupied again before tearing it down.
func (r *Room) CancelUnload() {
	r.mu.Lock()
	r.idleTicks = 0
	r.unloadRequested = false
	r.mu.Unlock()
}

// LoadItems indexes already persisted items without writing them back.
func (r *Room) LoadItems(items []*Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range items {
		r.indexItem(it)
	}
}

func (r *Room) indexItem(it *Item) {
	r.items[it.ID] = it
	if !it.IsFloor() {
		return
	}
	r.tiles.AddItem(it)
	if it.Def.IsRoller() {
		r.rollers = append(r.rollers, it)
		sort.Slice(r.rollers, func(i, j int) bool { return r.rollers[i].ID < r.rollers[j].ID })
	}
}

func (r *Room) unindexItem(it *Item) {
	delete(r.items, it.ID)
	delete(r.timers, it.ID)
	if !it.IsFloor() {
		return
	}
	r.tiles.RemoveItem(it)
	if it.Def.IsRoller() {
		for i, other := range r.rollers {
			if other.ID == it.ID {
				r.rollers = append(r.rollers[:i], r.rollers[i+1:]...)
				break
			}
		}
	}
}

// Snapshot is everything a client needs to render the room on entry.
type Snapshot struct {
	RoomID    int
	Model     string
	Heightmap string
	Entities  []event.EntityEntered
	Statuses  []event.EntityStatus
	Items     []event.ItemInfo
}

func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Snapshot{
		RoomID:    r.ID,
		Model:     r.model.Name,
		Heightmap: r.model.Heightmap(),
	}
	for _, e := range r.pop.sorted() {
		s.Entities = append(s.Entities, e.enteredEvent(r.ID))
		s.Statuses = append(s.Statuses, e.statusEvent())
	}
	ids := make([]int64, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		s.Items = append(s.Items, r.items[id].Info())
	}
	return s
}

func (r *Room) notice(accountID int64, key string) {
	if accountID == 0 {
		return
	}
	event.Emit(r.deps.Bus, event.Notice{AccountID: accountID, Key: key})
}
