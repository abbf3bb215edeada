package event

// Domain events emitted by rooms. They carry plain values only so the
// serialization layer never reaches back into live room state.

// EntityKind mirrors room.Kind without importing it.
type EntityKind uint8

// EntityStatus is one entity's row in a status batch.
type EntityStatus struct {
	VID     int
	X, Y    int
	Z       float64
	HeadRot int
	BodyRot int
	Status  string // "/mv 5,6,0.0/sit 1.0/" style status line
}

// StatusBatch is emitted once per room tick with every entity whose
// visible state changed since the previous tick.
type StatusBatch struct {
	RoomID   int
	Statuses []EntityStatus
}

type EntityEntered struct {
	RoomID    int
	VID       int
	Kind      EntityKind
	AccountID int64
	Name      string
	Figure    string
	Motto     string
	X, Y      int
	Z         float64
	Rot       int
}

type EntityLeft struct {
	RoomID    int
	VID       int
	AccountID int64
	Reason    string
}

type EntitySlept struct {
	RoomID int
	VID    int
	Asleep bool
}

type EntityDanced struct {
	RoomID  int
	VID     int
	DanceID int
}

type EntityCarry struct {
	RoomID int
	VID    int
	ItemID int
}

type EntitySaid struct {
	RoomID int
	VID    int
	Text   string
}

// ItemInfo is the wire-facing snapshot of a placed furniture item.
type ItemInfo struct {
	ID        int64
	BaseID    int
	OwnerID   int64
	X, Y      int
	Z         float64
	Rot       int
	WallPos   string
	ExtraData string
}

type ItemPlaced struct {
	RoomID int
	Item   ItemInfo
}

type ItemUpdated struct {
	RoomID int
	Item   ItemInfo
}

type ItemRemoved struct {
	RoomID   int
	ItemID   int64
	PickerID int64
}

// RolledObject describes one item or entity moved by a roller this tick.
type RolledObject struct {
	ID           int64 // item id, or entity virtual id
	FromX, FromY int
	ToX, ToY     int
	FromZ, ToZ   float64
}

type RollerMoved struct {
	RoomID   int
	RollerID int64
	Items    []RolledObject
	Entities []RolledObject
}

// TradeSide is one participant's half of a trade window.
type TradeSide struct {
	VID       int
	AccountID int64
	Items     []TradeOffer
	Accepted  bool
}

type TradeOffer struct {
	ItemID int64
	BaseID int
}

type TradeOpened struct {
	RoomID  int
	TradeID string
	Sides   [2]TradeSide
}

type TradeUpdated struct {
	RoomID  int
	TradeID string
	Sides   [2]TradeSide
}

type TradeCompleted struct {
	RoomID  int
	TradeID string
	Sides   [2]TradeSide
}

type TradeFailed struct {
	RoomID  int
	TradeID string
	Sides   [2]TradeSide
}

type TradeClosed struct {
	RoomID   int
	TradeID  string
	Sides    [2]TradeSide
	ClosedBy int // virtual id, 0 when forced
}

// Notice is a declarative user-visible message addressed to one account.
type Notice struct {
	AccountID int64
	Key       string
}

type RoomUnloaded struct {
	RoomID int
}
