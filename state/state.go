package state

import (
	"errors"
	"sync"
)

// Phase is the position of a room in the game state machine.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseQuestion Phase = "question"
	PhaseReveal   Phase = "reveal"
	PhaseGameOver Phase = "finished"
)

// ErrTransitionNotAllowed is returned when a phase transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// Machine guards the room's phase transitions. The transition table is fixed:
// lobby -> question -> reveal -> (question | finished), finished is terminal.
type Machine struct {
	current     Phase
	transitions map[Phase][]Phase
	mutex       sync.RWMutex
}

func NewMachine() *Machine {
	return &Machine{
		current: PhaseLobby,
		transitions: map[Phase][]Phase{
			PhaseLobby:    {PhaseQuestion},
			PhaseQuestion: {PhaseReveal, PhaseGameOver},
			PhaseReveal:   {PhaseQuestion, PhaseGameOver},
			PhaseGameOver: {},
		},
	}
}

func (m *Machine) Current() Phase {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.current
}

func (m *Machine) Is(p Phase) bool {
	return m.Current() == p
}

// Transition moves to the target phase if the table allows it.
func (m *Machine) Transition(to Phase) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, allowed := range m.transitions[m.current] {
		if allowed == to {
			m.current = to
			return nil
		}
	}
	return ErrTransitionNotAllowed
}
