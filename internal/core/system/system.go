package system

import "time"

// Phase defines execution ordering within a single loop iteration.
type Phase int

const (
	PhaseInput   Phase = iota // 0: drain session queues, run handlers
	PhaseUpdate               // 1: room simulation ticks
	PhaseOutput               // 2: dispatch domain events, flush sessions
	PhaseCleanup              // 3: unload rooms, drop dead sessions

	phaseCount
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseUpdate:
		return "update"
	case PhaseOutput:
		return "output"
	case PhaseCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// System is one stage of the server loop.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
