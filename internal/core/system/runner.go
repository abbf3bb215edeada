package system

import (
	"fmt"
	"time"
)

// Runner drives one server loop iteration. Systems are bucketed by phase
// at registration; within a phase they run in registration order.
// Registration happens before the loop starts and Runner is only used from
// the loop goroutine.
type Runner struct {
	phases [phaseCount][]System
}

func NewRunner() *Runner {
	return &Runner{}
}

// Register adds s to its phase bucket. It panics on a phase outside the
// known set, which is a wiring bug.
func (r *Runner) Register(s System) {
	p := s.Phase()
	if p < 0 || p >= phaseCount {
		panic(fmt.Sprintf("system: register %T with unknown phase %d", s, p))
	}
	r.phases[p] = append(r.phases[p], s)
}

// Tick runs every phase once. dt is the wall time since the previous call;
// the room tick system accumulates it into fixed tick periods.
func (r *Runner) Tick(dt time.Duration) {
	for p := range r.phases {
		r.run(Phase(p), dt)
	}
}

// TickPhase runs a single phase. Shutdown uses it to deliver the leave
// events raised while rooms close, without ticking the rooms again.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	if phase < 0 || phase >= phaseCount {
		return
	}
	r.run(phase, dt)
}

// Len returns the number of registered systems.
func (r *Runner) Len() int {
	n := 0
	for _, bucket := range r.phases {
		n += len(bucket)
	}
	return n
}

func (r *Runner) run(phase Phase, dt time.Duration) {
	for _, s := range r.phases[phase] {
		s.Update(dt)
	}
}
