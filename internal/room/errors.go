package room

import "errors"

var (
	ErrModelMissing     = errors.New("room model missing")
	ErrRoomClosed       = errors.New("room is unloading")
	ErrRoomFull         = errors.New("room is full")
	ErrBanned           = errors.New("banned from room")
	ErrDoorLocked       = errors.New("room is locked")
	ErrWrongPassword    = errors.New("wrong room password")
	ErrNoSpawn          = errors.New("no free tile to spawn on")
	ErrNotInRoom        = errors.New("entity not in room")
	ErrNoRights         = errors.New("no rights in room")
	ErrInvalidPlacement = errors.New("invalid furniture placement")
	ErrItemNotFound     = errors.New("item not found")
	ErrAlreadyPresent   = errors.New("already present in room")
)

// Reasons attached to EntityLeft events.
const (
	ReasonLeave      = "leave"
	ReasonDoor       = "door"
	ReasonKick       = "kick"
	ReasonBan        = "ban"
	ReasonReenter    = "reenter"
	ReasonDisconnect = "disconnect"
	ReasonUnload     = "unload"
	ReasonPickup     = "pickup"
)

// Notice keys sent to clients.
const (
	NoticePlaceFailed   = "furni.place_failed"
	NoticeMoveFailed    = "furni.move_failed"
	NoticePickupFailed  = "furni.pickup_failed"
	NoticeUseFailed     = "furni.use_failed"
	NoticeTradeFailed   = "trade.failed"
	NoticeTradeDisabled = "trade.disabled"
	NoticeKicked        = "room.kicked"
	NoticeBanned        = "room.banned"
	NoticeRightsGiven   = "room.rights_given"
	NoticeRightsTaken   = "room.rights_taken"
	NoticeRightsFailed  = "room.rights_failed"
)
