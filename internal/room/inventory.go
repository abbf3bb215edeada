package room

import (
	"sort"
	"sync"

	"github.com/hotelgo/server/internal/data"
)

// InvItem is one furniture item held in an account's inventory.
type InvItem struct {
	ID        int64
	Def       *data.FurniDef
	ExtraData string
}

// Tradeable reports whether the item may be offered in a trade.
func (i *InvItem) Tradeable() bool {
	return i.Def != nil && i.Def.AllowTrade
}

// Inventory holds an account's unplaced furniture. It outlives room visits
// and is shared by every room the player enters, so it guards itself.
type Inventory struct {
	mu    sync.Mutex
	items map[int64]*InvItem
}

func NewInventory(items ...*InvItem) *Inventory {
	inv := &Inventory{items: make(map[int64]*InvItem, len(items))}
	for _, it := range items {
		inv.items[it.ID] = it
	}
	return inv
}

func (inv *Inventory) Get(id int64) (*InvItem, bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	it, ok := inv.items[id]
	return it, ok
}

func (inv *Inventory) Add(it *InvItem) {
	inv.mu.Lock()
	inv.items[it.ID] = it
	inv.mu.Unlock()
}

// Remove deletes the item and returns it, or nil if absent.
func (inv *Inventory) Remove(id int64) *InvItem {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	it, ok := inv.items[id]
	if !ok {
		return nil
	}
	delete(inv.items, id)
	return it
}

func (inv *Inventory) Count() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return len(inv.items)
}

// IDs returns the held item ids in ascending order.
func (inv *Inventory) IDs() []int64 {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	ids := make([]int64, 0, len(inv.items))
	for id := range inv.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
