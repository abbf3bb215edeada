package room

import (
	"sort"
	"sync"
	"time"
)

// vidPool hands out room-scoped virtual ids, reusing released ones.
// Ids start at 1; 0 means "nobody".
type vidPool struct {
	freeList []int
	next     int
}

func (p *vidPool) acquire() int {
	if n := len(p.freeList); n > 0 {
		id := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return id
	}
	p.next++
	return p.next
}

func (p *vidPool) release(id int) {
	if id <= 0 || id > p.next {
		return
	}
	p.freeList = append(p.freeList, id)
}

// population is the registry of entities present in a room.
type population struct {
	mu        sync.RWMutex
	entities  map[int]*Entity
	byAccount map[int64]int // players only
	bots      map[int64]int
	pets      map[int64]int
	vids      vidPool
}

func newPopulation() *population {
	return &population{
		entities:  make(map[int]*Entity),
		byAccount: make(map[int64]int),
		bots:      make(map[int64]int),
		pets:      make(map[int64]int),
	}
}

func (p *population) add(kind Kind, fill func(e *Entity)) *Entity {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := newEntity(p.vids.acquire(), kind)
	fill(e)
	p.entities[e.VID] = e
	switch {
	case e.Player != nil:
		p.byAccount[e.Player.AccountID] = e.VID
	case e.Bot != nil:
		p.bots[e.Bot.ID] = e.VID
	case e.Pet != nil:
		p.pets[e.Pet.ID] = e.VID
	}
	return e
}

// remove drops the entity from every index, then frees its virtual id.
func (p *population) remove(vid int) *Entity {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entities[vid]
	if !ok {
		return nil
	}
	delete(p.entities, vid)
	switch {
	case e.Player != nil:
		if p.byAccount[e.Player.AccountID] == vid {
			delete(p.byAccount, e.Player.AccountID)
		}
	case e.Bot != nil:
		delete(p.bots, e.Bot.ID)
	case e.Pet != nil:
		delete(p.pets, e.Pet.ID)
	}
	p.vids.release(vid)
	return e
}

func (p *population) get(vid int) *Entity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.entities[vid]
}

func (p *population) byAccountID(accountID int64) *Entity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if vid, ok := p.byAccount[accountID]; ok {
		return p.entities[vid]
	}
	return nil
}

func (p *population) hasBot(id int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.bots[id]
	return ok
}

func (p *population) hasPet(id int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.pets[id]
	return ok
}

// sorted returns a snapshot of all entities ordered by virtual id.
func (p *population) sorted() []*Entity {
	p.mu.RLock()
	out := make([]*Entity, 0, len(p.entities))
	for _, e := range p.entities {
		out = append(out, e)
	}
	p.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].VID < out[j].VID })
	return out
}

func (p *population) players() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byAccount)
}

func (p *population) count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entities)
}

// access holds the owner, rights list and in-memory bans of a room.
type access struct {
	mu     sync.RWMutex
	owner  int64
	rights map[int64]struct{}
	bans   map[int64]time.Time // account -> expiry
	now    func() time.Time
}

func newAccess(owner int64, rights []int64, now func() time.Time) *access {
	a := &access{
		owner:  owner,
		rights: make(map[int64]struct{}, len(rights)),
		bans:   make(map[int64]time.Time),
		now:    now,
	}
	for _, id := range rights {
		a.rights[id] = struct{}{}
	}
	return a
}

func (a *access) IsOwner(accountID int64) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return accountID != 0 && accountID == a.owner
}

// HasRights is true for the owner and anyone on the rights list.
func (a *access) HasRights(accountID int64) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if accountID != 0 && accountID == a.owner {
		return true
	}
	_, ok := a.rights[accountID]
	return ok
}

// IsBanned reports an unexpired ban. Expired bans are dropped on lookup.
func (a *access) IsBanned(accountID int64) bool {
	a.mu.RLock()
	until, ok := a.bans[accountID]
	a.mu.RUnlock()
	if !ok {
		return false
	}
	if a.now().Before(until) {
		return true
	}
	a.mu.Lock()
	if cur, ok := a.bans[accountID]; ok && !a.now().Before(cur) {
		delete(a.bans, accountID)
	}
	a.mu.Unlock()
	return false
}

func (a *access) ban(accountID int64, d time.Duration) {
	a.mu.Lock()
	a.bans[accountID] = a.now().Add(d)
	a.mu.Unlock()
}

func (a *access) unban(accountID int64) {
	a.mu.Lock()
	delete(a.bans, accountID)
	a.mu.Unlock()
}

func (a *access) grant(accountID int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.rights[accountID]; ok || accountID == a.owner {
		return false
	}
	a.rights[accountID] = struct{}{}
	return true
}

func (a *access) revoke(accountID int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.rights[accountID]; !ok {
		return false
	}
	delete(a.rights, accountID)
	return true
}

func (a *access) rightsList() []int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]int64, 0, len(a.rights))
	for id := range a.rights {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
