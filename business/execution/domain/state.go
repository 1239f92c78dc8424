// Package domain contains the execution state machine and records.
package domain

// State is the lifecycle stage of one flash-loan execution. The machine is
// strictly linear; any stage may fail into StateFailed, and Repaid/Failed
// are terminal.
type State string

// Lifecycle states.
const (
	StateIdle          State = "idle"
	StateValidated     State = "validated"
	StateLoanRequested State = "loan_requested"
	StateBuyExecuted   State = "buy_executed"
	StateSellExecuted  State = "sell_executed"
	StateRepaid        State = "repaid"
	StateFailed        State = "failed"
)

var transitions = map[State]State{
	StateIdle:          StateValidated,
	StateValidated:     StateLoanRequested,
	StateLoanRequested: StateBuyExecuted,
	StateBuyExecuted:   StateSellExecuted,
	StateSellExecuted:  StateRepaid,
}

// CanTransition reports whether from -> to is a legal step: the next linear
// stage, or StateFailed from any non-terminal stage.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return transitions[from] == to
}

// Terminal reports whether the state ends the execution.
func (s State) Terminal() bool {
	return s == StateRepaid || s == StateFailed
}

func (s State) String() string { return string(s) }
