package packet

// Client -> server message headers.
const (
	C_OPCODE_SSO_TICKET     uint16 = 1
	C_OPCODE_ENTER_ROOM     uint16 = 2
	C_OPCODE_LEAVE_ROOM     uint16 = 3
	C_OPCODE_PING           uint16 = 4
	C_OPCODE_WALK           uint16 = 10
	C_OPCODE_LOOK           uint16 = 11
	C_OPCODE_DANCE          uint16 = 12
	C_OPCODE_SIT            uint16 = 13
	C_OPCODE_CHAT           uint16 = 14
	C_OPCODE_PLACE_ITEM     uint16 = 20
	C_OPCODE_MOVE_ITEM      uint16 = 21
	C_OPCODE_PICKUP_ITEM    uint16 = 22
	C_OPCODE_USE_ITEM       uint16 = 23
	C_OPCODE_TRADE_OPEN     uint16 = 30
	C_OPCODE_TRADE_OFFER    uint16 = 31
	C_OPCODE_TRADE_REMOVE   uint16 = 32
	C_OPCODE_TRADE_ACCEPT   uint16 = 33
	C_OPCODE_TRADE_UNACCEPT uint16 = 34
	C_OPCODE_TRADE_CLOSE    uint16 = 35
	C_OPCODE_GIVE_RIGHTS    uint16 = 40
	C_OPCODE_TAKE_RIGHTS    uint16 = 41
	C_OPCODE_KICK           uint16 = 42
	C_OPCODE_BAN            uint16 = 43
	C_OPCODE_UNBAN          uint16 = 44
	C_OPCODE_POPULAR_ROOMS  uint16 = 50
)

// Server -> client message headers.
const (
	S_OPCODE_AUTH_OK        uint16 = 1001
	S_OPCODE_NOTICE         uint16 = 1002
	S_OPCODE_PONG           uint16 = 1003
	S_OPCODE_ROOM_READY     uint16 = 1010
	S_OPCODE_ROOM_ITEMS     uint16 = 1011
	S_OPCODE_ROOM_LEFT      uint16 = 1012
	S_OPCODE_ENTITY_ENTERED uint16 = 1020
	S_OPCODE_ENTITY_LEFT    uint16 = 1021
	S_OPCODE_STATUS         uint16 = 1022
	S_OPCODE_SLEEP          uint16 = 1023
	S_OPCODE_DANCE          uint16 = 1024
	S_OPCODE_CARRY          uint16 = 1025
	S_OPCODE_CHAT           uint16 = 1026
	S_OPCODE_ITEM_PLACED    uint16 = 1030
	S_OPCODE_ITEM_UPDATED   uint16 = 1031
	S_OPCODE_ITEM_REMOVED   uint16 = 1032
	S_OPCODE_ROLLER         uint16 = 1033
	S_OPCODE_TRADE_OPEN     uint16 = 1040
	S_OPCODE_TRADE_UPDATE   uint16 = 1041
	S_OPCODE_TRADE_DONE     uint16 = 1042
	S_OPCODE_TRADE_CLOSE    uint16 = 1043
	S_OPCODE_POPULAR_ROOMS  uint16 = 1050
)
