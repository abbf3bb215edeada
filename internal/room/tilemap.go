package room

import (
	"sort"

	"github.com/hotelgo/server/internal/data"
)

// TileKind is the derived walkability class of a tile.
type TileKind uint8

const (
	TileOpen    TileKind = iota
	TileBlocked          // non-walkable furniture on top
	TileSit              // seat on top: blocks passing through, not ending there
	TileLay              // bed on top: same rule as seats
	TileVoid             // no floor
)

// OccupyFlags modify a CanOccupy query.
type OccupyFlags uint8

const (
	// OverrideOccupancy ignores entities, seats and step height; used for
	// forced placement. Bounds and void still apply.
	OverrideOccupancy OccupyFlags = 1 << iota
	// IgnoreEntities skips the occupant check, used when planning a route
	// through a walkthrough room.
	IgnoreEntities
)

// TileMap merges a room model with the live furniture and entity state.
// Tiles are stored in flat arrays indexed [x * sizeY + y].
type TileMap struct {
	model   *data.RoomModel
	sizeX   int
	sizeY   int
	maxStep float64

	stacks   [][]*Item // floor items covering each tile, bottom first
	height   []float64 // effective height
	kind     []TileKind
	occupant []int // committed virtual id, 0 = free
	reserved []int // virtual id with a pending step onto the tile
}

func NewTileMap(model *data.RoomModel, maxStep float64) *TileMap {
	n := model.SizeX * model.SizeY
	m := &TileMap{
		model:    model,
		sizeX:    model.SizeX,
		sizeY:    model.SizeY,
		maxStep:  maxStep,
		stacks:   make([][]*Item, n),
		height:   make([]float64, n),
		kind:     make([]TileKind, n),
		occupant: make([]int, n),
		reserved: make([]int, n),
	}
	for x := 0; x < m.sizeX; x++ {
		for y := 0; y < m.sizeY; y++ {
			m.recompute(Point{X: x, Y: y})
		}
	}
	return m
}

func (m *TileMap) Model() *data.RoomModel { return m.model }

func (m *TileMap) InBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < m.sizeX && p.Y < m.sizeY
}

func (m *TileMap) idx(p Point) int { return p.X*m.sizeY + p.Y }

// Door returns the model's door tile.
func (m *TileMap) Door() Point {
	return Point{X: m.model.DoorX, Y: m.model.DoorY}
}

// Kind returns the tile class; out-of-bounds tiles are void.
func (m *TileMap) Kind(p Point) TileKind {
	if !m.InBounds(p) {
		return TileVoid
	}
	return m.kind[m.idx(p)]
}

// EffectiveHeight is the base height raised to the top of the highest
// furniture covering the tile.
func (m *TileMap) EffectiveHeight(p Point) float64 {
	if !m.InBounds(p) {
		return 0
	}
	return m.height[m.idx(p)]
}

// StandHeight is where an entity's feet rest on the tile. Seats and beds
// put the entity at the furniture's own height, not its top.
func (m *TileMap) StandHeight(p Point) float64 {
	if !m.InBounds(p) {
		return 0
	}
	i := m.idx(p)
	switch m.kind[i] {
	case TileSit, TileLay:
		return m.topAt(i, 0).Z
	}
	return m.height[i]
}

// TopItem returns the highest floor item on the tile, or nil.
func (m *TileMap) TopItem(p Point) *Item {
	if !m.InBounds(p) {
		return nil
	}
	return m.topAt(m.idx(p), 0)
}

// ItemsAt returns the floor items covering the tile, bottom first.
func (m *TileMap) ItemsAt(p Point) []*Item {
	if !m.InBounds(p) {
		return nil
	}
	return m.stacks[m.idx(p)]
}

func (m *TileMap) topAt(i int, exclude int64) *Item {
	s := m.stacks[i]
	for k := len(s) - 1; k >= 0; k-- {
		if s[k].ID != exclude {
			return s[k]
		}
	}
	return nil
}

// TerrainBlocked reports whether the tile can never be walked regardless
// of entities: void or covered by non-walkable furniture.
func (m *TileMap) TerrainBlocked(p Point) bool {
	k := m.Kind(p)
	return k == TileVoid || k == TileBlocked
}

// CanOccupy reports whether mover, currently at height z, may stand on p.
// final is true when p is the last tile of a route: seats and beds only
// block entities passing through.
func (m *TileMap) CanOccupy(p Point, z float64, final bool, mover int, flags OccupyFlags) bool {
	if !m.InBounds(p) {
		return false
	}
	i := m.idx(p)
	if m.kind[i] == TileVoid {
		return false
	}
	if flags&OverrideOccupancy != 0 {
		return true
	}
	switch m.kind[i] {
	case TileBlocked:
		return false
	case TileSit, TileLay:
		if !final {
			return false
		}
	}
	if m.StandHeight(p)-z > m.maxStep {
		return false
	}
	if flags&IgnoreEntities == 0 {
		if occ := m.occupant[i]; occ != 0 && occ != mover {
			return false
		}
		if res := m.reserved[i]; res != 0 && res != mover {
			return false
		}
	}
	return true
}

// Occupant returns the virtual id committed to the tile, or 0.
func (m *TileMap) Occupant(p Point) int {
	if !m.InBounds(p) {
		return 0
	}
	return m.occupant[m.idx(p)]
}

// Held reports whether another entity occupies or has reserved the tile.
func (m *TileMap) Held(p Point, self int) bool {
	if !m.InBounds(p) {
		return false
	}
	i := m.idx(p)
	occ, res := m.occupant[i], m.reserved[i]
	return (occ != 0 && occ != self) || (res != 0 && res != self)
}

// RegisterOccupant claims p for vid. It fails if another entity already
// holds the tile; callers release the old tile first.
func (m *TileMap) RegisterOccupant(p Point, vid int) bool {
	if !m.InBounds(p) || m.Held(p, vid) {
		return false
	}
	i := m.idx(p)
	m.occupant[i] = vid
	if m.reserved[i] == vid {
		m.reserved[i] = 0
	}
	return true
}

// ReleaseOccupant frees p if vid holds it.
func (m *TileMap) ReleaseOccupant(p Point, vid int) {
	if !m.InBounds(p) {
		return
	}
	i := m.idx(p)
	if m.occupant[i] == vid {
		m.occupant[i] = 0
	}
}

// Reserve marks p as the target of vid's pending step.
func (m *TileMap) Reserve(p Point, vid int) bool {
	if !m.InBounds(p) || m.Held(p, vid) {
		return false
	}
	m.reserved[m.idx(p)] = vid
	return true
}

func (m *TileMap) Unreserve(p Point, vid int) {
	if !m.InBounds(p) {
		return
	}
	i := m.idx(p)
	if m.reserved[i] == vid {
		m.reserved[i] = 0
	}
}

// AddItem indexes a floor item's footprint and recomputes the tiles.
func (m *TileMap) AddItem(it *Item) {
	for _, p := range it.Tiles() {
		if !m.InBounds(p) {
			continue
		}
		i := m.idx(p)
		m.stacks[i] = append(m.stacks[i], it)
		sort.SliceStable(m.stacks[i], func(a, b int) bool {
			sa, sb := m.stacks[i][a], m.stacks[i][b]
			if sa.Z != sb.Z {
				return sa.Z < sb.Z
			}
			return sa.ID < sb.ID
		})
		m.recompute(p)
	}
}

// RemoveItem drops a floor item from every tile it covers. The item's
// current position must match the one it was added with.
func (m *TileMap) RemoveItem(it *Item) {
	for _, p := range it.Tiles() {
		if !m.InBounds(p) {
			continue
		}
		i := m.idx(p)
		s := m.stacks[i]
		for k, other := range s {
			if other.ID == it.ID {
				m.stacks[i] = append(s[:k], s[k+1:]...)
				break
			}
		}
		m.recompute(p)
	}
}

// Refresh recomputes tiles after an item's state changed in place
// (e.g. a gate opening).
func (m *TileMap) Refresh(it *Item) {
	for _, p := range it.Tiles() {
		if m.InBounds(p) {
			m.recompute(p)
		}
	}
}

// PlacementHeight validates that a footprint can hold an item and returns
// the height it would rest at. The excluded item (the one being moved) is
// ignored. Non-stackable furniture on any covered tile rejects the
// placement outright.
func (m *TileMap) PlacementHeight(tiles []Point, exclude int64) (float64, bool) {
	z := 0.0
	for _, p := range tiles {
		if !m.InBounds(p) || m.model.IsVoid(p.X, p.Y) {
			return 0, false
		}
		i := m.idx(p)
		h := m.model.BaseHeight(p.X, p.Y)
		for _, it := range m.stacks[i] {
			if it.ID == exclude {
				continue
			}
			if !it.Def.CanStack {
				return 0, false
			}
			h = max(h, it.Top())
		}
		z = max(z, h)
	}
	return z, true
}

func (m *TileMap) recompute(p Point) {
	i := m.idx(p)
	if m.model.IsVoid(p.X, p.Y) {
		m.kind[i] = TileVoid
		m.height[i] = 0
		return
	}
	h := m.model.BaseHeight(p.X, p.Y)
	for _, it := range m.stacks[i] {
		h = max(h, it.Top())
	}
	m.height[i] = h

	top := m.topAt(i, 0)
	switch {
	case top == nil:
		m.kind[i] = TileOpen
	case top.Def.CanSit:
		m.kind[i] = TileSit
	case top.Def.CanLay:
		m.kind[i] = TileLay
	case !top.Walkable():
		m.kind[i] = TileBlocked
	default:
		m.kind[i] = TileOpen
	}
}
