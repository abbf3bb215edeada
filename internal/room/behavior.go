package room

// Bot and pet behavior commands.
const (
	CommandWalk   = "walk"
	CommandWander = "wander"
	CommandSay    = "say"
	CommandSit    = "sit"
	CommandLook   = "look"
)

// BehaviorContext is the read-only view a behavior sees each tick.
type BehaviorContext struct {
	RoomID   int
	VID      int
	Kind     Kind
	Behavior string
	X, Y     int
	Rot      int
	Walking  bool
	Tick     int64
	SizeX    int
	SizeY    int
	Speech   []string
}

// Command is one action a behavior asks the room to perform.
type Command struct {
	Op     string
	X, Y   int
	Radius int
	Text   string
}

// Behavior decides what a bot or pet does on a tick.
type Behavior interface {
	Think(ctx BehaviorContext) ([]Command, error)
}
