package room

// State of the room lifecycle.
type State string

const (
	StateOpen   State = "OPEN"
	StateReady  State = "READY"
	StateInGame State = "IN_GAME"
	StateEnded  State = "ENDED"
)

// validTransitions - the only legal edges. Everything else is rejected, so a
// game cannot be started twice and a finished room must be reset before
// reuse.
var validTransitions = map[State][]State{
	StateOpen:   {StateReady},
	StateReady:  {StateInGame, StateOpen},
	StateInGame: {StateEnded, StateReady},
	StateEnded:  {StateOpen},
}

// Machine is the room's finite state machine. It has no side effects;
// broadcasting is the caller's job.
type Machine struct {
	current State
}

func NewMachine() *Machine {
	return &Machine{current: StateOpen}
}

func (that *Machine) Current() State {
	return that.current
}

func (that *Machine) CanTransitionTo(target State) bool {
	for _, next := range validTransitions[that.current] {
		if next == target {
			return true
		}
	}

	return false
}

// TransitionTo moves to the target state if the edge is legal. An illegal
// request is a no-op and reports failure.
func (that *Machine) TransitionTo(target State) bool {
	if !that.CanTransitionTo(target) {
		return false
	}

	that.current = target

	return true
}
