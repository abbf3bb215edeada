package room

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hotelgo/server/internal/core/event"
)

// Kind tags the entity variant.
type Kind uint8

const (
	KindPlayer Kind = iota + 1
	KindBot
	KindPet
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindBot:
		return "bot"
	case KindPet:
		return "pet"
	}
	return "unknown"
}

// Status keys rendered into the entity status line.
const (
	StatusMove    = "mv"
	StatusSit     = "sit"
	StatusLay     = "lay"
	StatusControl = "flatctrl"
	StatusSign    = "sign"
	StatusTrade   = "trd"
)

var statusOrder = []string{StatusControl, StatusMove, StatusSit, StatusLay, StatusTrade, StatusSign}

// PlayerData is the payload of a player entity.
type PlayerData struct {
	AccountID int64
	Username  string
	Figure    string
	Motto     string
	Inventory *Inventory
}

// BotData is the payload of a bot entity.
type BotData struct {
	ID       int64
	OwnerID  int64
	Name     string
	Figure   string
	Behavior string
	Speech   []string
}

// PetData is the payload of a pet entity.
type PetData struct {
	ID       int64
	OwnerID  int64
	Name     string
	Type     int
	Behavior string
}

type pendingStep struct {
	to Point
	z  float64
}

// Entity is a player, bot or pet present in a room. Exactly one of the
// payload pointers is set, matching Kind.
type Entity struct {
	VID  int
	Kind Kind

	Player *PlayerData
	Bot    *BotData
	Pet    *PetData

	Pos     Point
	Z       float64
	HeadRot int
	BodyRot int

	goal          Point
	pathRequested bool
	path          []Point // goal first, current tile last
	step          int
	walking       bool
	pending       *pendingStep
	override      bool

	statuses map[string]string

	active     bool // did something this tick
	idleTicks  int
	asleep     bool
	carryItem  int
	carryTicks int
	danceID    int

	needsUpdate bool
}

func newEntity(vid int, kind Kind) *Entity {
	return &Entity{
		VID:      vid,
		Kind:     kind,
		statuses: make(map[string]string, 4),
	}
}

// AccountID returns the owning account for players and 0 otherwise.
func (e *Entity) AccountID() int64 {
	if e.Player != nil {
		return e.Player.AccountID
	}
	return 0
}

// OwnerID returns the account responsible for the entity: the player
// itself, or the owner of a bot or pet.
func (e *Entity) OwnerID() int64 {
	switch {
	case e.Player != nil:
		return e.Player.AccountID
	case e.Bot != nil:
		return e.Bot.OwnerID
	case e.Pet != nil:
		return e.Pet.OwnerID
	}
	return 0
}

func (e *Entity) Name() string {
	switch {
	case e.Player != nil:
		return e.Player.Username
	case e.Bot != nil:
		return e.Bot.Name
	case e.Pet != nil:
		return e.Pet.Name
	}
	return ""
}

func (e *Entity) behaviorName() string {
	switch {
	case e.Bot != nil:
		return e.Bot.Behavior
	case e.Pet != nil:
		return e.Pet.Behavior
	}
	return ""
}

func (e *Entity) Walking() bool    { return e.walking }
func (e *Entity) Asleep() bool     { return e.asleep }
func (e *Entity) IdleTicks() int   { return e.idleTicks }
func (e *Entity) CarryItem() int   { return e.carryItem }
func (e *Entity) DanceID() int     { return e.danceID }
func (e *Entity) HasPending() bool { return e.pending != nil }
func (e *Entity) Goal() Point      { return e.goal }

// Path returns a copy of the committed path, goal first.
func (e *Entity) Path() []Point {
	return append([]Point(nil), e.path...)
}

func (e *Entity) Status(key string) (string, bool) {
	v, ok := e.statuses[key]
	return v, ok
}

func (e *Entity) setStatus(key, value string) {
	if cur, ok := e.statuses[key]; ok && cur == value {
		return
	}
	e.statuses[key] = value
	e.needsUpdate = true
}

func (e *Entity) clearStatus(key string) {
	if _, ok := e.statuses[key]; ok {
		delete(e.statuses, key)
		e.needsUpdate = true
	}
}

// markActive resets the idle counter and reports whether the entity woke up.
func (e *Entity) markActive() bool {
	e.idleTicks = 0
	if e.asleep {
		e.asleep = false
		return true
	}
	return false
}

func (e *Entity) stopWalking() {
	e.walking = false
	e.pathRequested = false
	e.path = nil
	e.step = 0
	e.clearStatus(StatusMove)
}

// StatusLine renders the status map as "/key value/key value/".
func (e *Entity) StatusLine() string {
	var b strings.Builder
	b.WriteByte('/')
	seen := make(map[string]bool, len(statusOrder))
	write := func(k string) {
		v, ok := e.statuses[k]
		if !ok {
			return
		}
		b.WriteString(k)
		if v != "" {
			b.WriteByte(' ')
			b.WriteString(v)
		}
		b.WriteByte('/')
	}
	for _, k := range statusOrder {
		seen[k] = true
		write(k)
	}
	var rest []string
	for k := range e.statuses {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		write(k)
	}
	return b.String()
}

func (e *Entity) statusEvent() event.EntityStatus {
	return event.EntityStatus{
		VID:     e.VID,
		X:       e.Pos.X,
		Y:       e.Pos.Y,
		Z:       e.Z,
		HeadRot: e.HeadRot,
		BodyRot: e.BodyRot,
		Status:  e.StatusLine(),
	}
}

func (e *Entity) enteredEvent(roomID int) event.EntityEntered {
	ev := event.EntityEntered{
		RoomID:    roomID,
		VID:       e.VID,
		Kind:      event.EntityKind(e.Kind),
		AccountID: e.AccountID(),
		Name:      e.Name(),
		X:         e.Pos.X,
		Y:         e.Pos.Y,
		Z:         e.Z,
		Rot:       e.BodyRot,
	}
	switch {
	case e.Player != nil:
		ev.Figure = e.Player.Figure
		ev.Motto = e.Player.Motto
	case e.Bot != nil:
		ev.Figure = e.Bot.Figure
	case e.Pet != nil:
		ev.Figure = strconv.Itoa(e.Pet.Type)
	}
	return ev
}

func formatHeight(z float64) string {
	return strconv.FormatFloat(z, 'f', 1, 64)
}

func formatMove(p Point, z float64) string {
	return strconv.Itoa(p.X) + "," + strconv.Itoa(p.Y) + "," + formatHeight(z)
}
