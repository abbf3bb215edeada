package room

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hotelgo/server/internal/core/event"
)

// TradeState is the lifecycle stage of a trade.
type TradeState int

const (
	TradeNegotiating TradeState = iota
	TradeCompleted
	TradeCancelled
)

type tradeParty struct {
	vid       int
	accountID int64
	inv       *Inventory
	offers    []int64
	accepted  bool
}

func (p *tradeParty) has(id int64) bool {
	for _, o := range p.offers {
		if o == id {
			return true
		}
	}
	return false
}

// Trade is a negotiation between two players in one room.
type Trade struct {
	ID      string
	State   TradeState
	parties [2]*tradeParty
}

func (t *Trade) party(vid int) (self, other *tradeParty) {
	if t.parties[0].vid == vid {
		return t.parties[0], t.parties[1]
	}
	return t.parties[1], t.parties[0]
}

// Offers returns the items a participant currently offers.
func (t *Trade) Offers(vid int) []int64 {
	self, _ := t.party(vid)
	return append([]int64(nil), self.offers...)
}

// Accepted reports a participant's acceptance flag.
func (t *Trade) Accepted(vid int) bool {
	self, _ := t.party(vid)
	return self.accepted
}

func (t *Trade) sides() [2]event.TradeSide {
	var out [2]event.TradeSide
	for i, p := range t.parties {
		side := event.TradeSide{VID: p.vid, AccountID: p.accountID, Accepted: p.accepted}
		for _, id := range p.offers {
			offer := event.TradeOffer{ItemID: id}
			if it, ok := p.inv.Get(id); ok && it.Def != nil {
				offer.BaseID = it.Def.ID
			}
			side.Items = append(side.Items, offer)
		}
		out[i] = side
	}
	return out
}

// tradeBook indexes active trades by both participants' virtual ids.
type tradeBook struct {
	byVID map[int]*Trade
}

func newTradeBook() *tradeBook {
	return &tradeBook{byVID: make(map[int]*Trade)}
}

func (b *tradeBook) offered(itemID int64) bool {
	for _, t := range b.byVID {
		for _, p := range t.parties {
			if p.has(itemID) {
				return true
			}
		}
	}
	return false
}

func (b *tradeBook) drop(t *Trade) {
	for _, p := range t.parties {
		if b.byVID[p.vid] == t {
			delete(b.byVID, p.vid)
		}
	}
}

// TradeOf returns the active trade a participant is in, or nil.
func (r *Room) TradeOf(vid int) *Trade {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trades.byVID[vid]
}

// ActiveTrades counts trades currently negotiating in the room.
func (r *Room) ActiveTrades() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[*Trade]bool)
	for _, t := range r.trades.byVID {
		seen[t] = true
	}
	return len(seen)
}

// OpenTrade starts a trade between two players. It does nothing if either
// is already trading, either is not a player, or the room's trade mode
// forbids the initiator.
func (r *Room) OpenTrade(initiator, target int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if initiator == target {
		return false
	}
	a, b := r.pop.get(initiator), r.pop.get(target)
	if a == nil || b == nil || a.Kind != KindPlayer || b.Kind != KindPlayer {
		return false
	}
	if a.Player.Inventory == nil || b.Player.Inventory == nil {
		return false
	}
	if r.trades.byVID[initiator] != nil || r.trades.byVID[target] != nil {
		return false
	}
	switch r.settings.TradeMode {
	case TradeDisabled:
		r.notice(a.AccountID(), NoticeTradeDisabled)
		return false
	case TradeRightsOnly:
		if !r.access.HasRights(a.AccountID()) {
			r.notice(a.AccountID(), NoticeTradeDisabled)
			return false
		}
	}

	t := &Trade{
		ID: uuid.NewString(),
		parties: [2]*tradeParty{
			{vid: a.VID, accountID: a.AccountID(), inv: a.Player.Inventory},
			{vid: b.VID, accountID: b.AccountID(), inv: b.Player.Inventory},
		},
	}
	r.trades.byVID[a.VID] = t
	r.trades.byVID[b.VID] = t
	a.setStatus(StatusTrade, "")
	b.setStatus(StatusTrade, "")
	event.Emit(r.deps.Bus, event.TradeOpened{RoomID: r.ID, TradeID: t.ID, Sides: t.sides()})
	r.log.Debug("trade opened", zap.String("trade", t.ID), zap.Int("a", a.VID), zap.Int("b", b.VID))
	return true
}

// OfferTradeItem adds an owned, tradeable inventory item to the party's
// offer. Any change to an offer clears both acceptance flags.
func (r *Room) OfferTradeItem(vid int, itemID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.trades.byVID[vid]
	if t == nil || t.State != TradeNegotiating {
		return false
	}
	self, _ := t.party(vid)
	it, ok := self.inv.Get(itemID)
	if !ok || !it.Tradeable() || self.has(itemID) {
		return false
	}
	if r.cfg.MaxTradeItems > 0 && len(self.offers) >= r.cfg.MaxTradeItems {
		return false
	}
	if _, placed := r.items[itemID]; placed {
		return false
	}
	self.offers = append(self.offers, itemID)
	r.offersChanged(t)
	return true
}

// WithdrawTradeItem removes an item from the party's offer.
func (r *Room) WithdrawTradeItem(vid int, itemID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.trades.byVID[vid]
	if t == nil || t.State != TradeNegotiating {
		return false
	}
	self, _ := t.party(vid)
	for i, id := range self.offers {
		if id == itemID {
			self.offers = append(self.offers[:i], self.offers[i+1:]...)
			r.offersChanged(t)
			return true
		}
	}
	return false
}

func (r *Room) offersChanged(t *Trade) {
	t.parties[0].accepted = false
	t.parties[1].accepted = false
	event.Emit(r.deps.Bus, event.TradeUpdated{RoomID: r.ID, TradeID: t.ID, Sides: t.sides()})
}

// AcceptTrade sets the party's acceptance flag. When both parties have
// accepted the exchange is committed; a commit failure aborts the whole
// exchange and clears both flags.
func (r *Room) AcceptTrade(ctx context.Context, vid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.trades.byVID[vid]
	if t == nil || t.State != TradeNegotiating {
		return nil
	}
	self, other := t.party(vid)
	if self.accepted {
		return nil
	}
	self.accepted = true
	event.Emit(r.deps.Bus, event.TradeUpdated{RoomID: r.ID, TradeID: t.ID, Sides: t.sides()})
	if !other.accepted {
		return nil
	}
	return r.completeTrade(ctx, t)
}

// UnacceptTrade clears the party's acceptance flag.
func (r *Room) UnacceptTrade(vid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.trades.byVID[vid]
	if t == nil || t.State != TradeNegotiating {
		return
	}
	self, _ := t.party(vid)
	if !self.accepted {
		return
	}
	self.accepted = false
	event.Emit(r.deps.Bus, event.TradeUpdated{RoomID: r.ID, TradeID: t.ID, Sides: t.sides()})
}

func (r *Room) completeTrade(ctx context.Context, t *Trade) error {
	ex := TradeExchange{TradeID: t.ID, RoomID: r.ID}
	for i, p := range t.parties {
		q := t.parties[1-i]
		for _, id := range p.offers {
			if _, ok := p.inv.Get(id); !ok {
				return r.failTrade(t, fmt.Errorf("item %d no longer held by %d", id, p.accountID))
			}
			ex.Transfers = append(ex.Transfers, TradeTransfer{ItemID: id, From: p.accountID, To: q.accountID})
		}
	}
	if len(ex.Transfers) > 0 {
		if err := r.deps.Trades.CommitTrade(ctx, ex); err != nil {
			return r.failTrade(t, err)
		}
	}

	sides := t.sides()
	var moved [2][]*InvItem
	for i, p := range t.parties {
		for _, id := range p.offers {
			if it := p.inv.Remove(id); it != nil {
				moved[i] = append(moved[i], it)
			}
		}
	}
	for i, items := range moved {
		for _, it := range items {
			t.parties[1-i].inv.Add(it)
		}
	}

	t.State = TradeCompleted
	r.trades.drop(t)
	r.clearTradeStatus(t)
	event.Emit(r.deps.Bus, event.TradeCompleted{RoomID: r.ID, TradeID: t.ID, Sides: sides})
	r.log.Info("trade completed", zap.String("trade", t.ID), zap.Int("transfers", len(ex.Transfers)))
	return nil
}

func (r *Room) failTrade(t *Trade, cause error) error {
	t.parties[0].accepted = false
	t.parties[1].accepted = false
	event.Emit(r.deps.Bus, event.TradeFailed{RoomID: r.ID, TradeID: t.ID, Sides: t.sides()})
	for _, p := range t.parties {
		r.notice(p.accountID, NoticeTradeFailed)
	}
	r.log.Warn("trade commit failed", zap.String("trade", t.ID), zap.Error(cause))
	return fmt.Errorf("trade %s: %w", t.ID, cause)
}

// CloseTrade cancels the trade the party is in. Closing a trade that no
// longer exists is a no-op.
func (r *Room) CloseTrade(vid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeTrade(vid, vid)
}

func (r *Room) closeTrade(vid, closedBy int) {
	t := r.trades.byVID[vid]
	if t == nil {
		return
	}
	t.State = TradeCancelled
	r.trades.drop(t)
	r.clearTradeStatus(t)
	event.Emit(r.deps.Bus, event.TradeClosed{RoomID: r.ID, TradeID: t.ID, Sides: t.sides(), ClosedBy: closedBy})
}

func (r *Room) clearTradeStatus(t *Trade) {
	for _, p := range t.parties {
		if e := r.pop.get(p.vid); e != nil {
			e.clearStatus(StatusTrade)
		}
	}
}
