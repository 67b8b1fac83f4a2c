package state

import (
	"testing"
)

func TestMachine_InitialPhase(t *testing.T) {
	m := NewMachine()

	if m.Current() != PhaseLobby {
		t.Errorf("Expected initial phase %s, got %s", PhaseLobby, m.Current())
	}
	if !m.Is(PhaseLobby) {
		t.Error("Is(PhaseLobby) should be true on a fresh machine")
	}
}

func TestMachine_AllowedTransitions(t *testing.T) {
	m := NewMachine()

	steps := []Phase{PhaseQuestion, PhaseReveal, PhaseQuestion, PhaseReveal, PhaseGameOver}
	for _, next := range steps {
		if err := m.Transition(next); err != nil {
			t.Fatalf("Transition to %s should be allowed, got error: %v", next, err)
		}
		if m.Current() != next {
			t.Fatalf("Expected current phase %s, got %s", next, m.Current())
		}
	}
}

func TestMachine_BlockedTransitions(t *testing.T) {
	blocked := []struct {
		from []Phase
		to   Phase
	}{
		{[]Phase{}, PhaseReveal},                               // lobby -> reveal
		{[]Phase{}, PhaseGameOver},                             // lobby -> finished
		{[]Phase{PhaseQuestion}, PhaseLobby},                   // question -> lobby
		{[]Phase{PhaseQuestion, PhaseReveal}, PhaseLobby},      // reveal -> lobby
		{[]Phase{PhaseQuestion, PhaseGameOver}, PhaseQuestion}, // finished is terminal
	}

	for _, tc := range blocked {
		m := NewMachine()
		for _, step := range tc.from {
			if err := m.Transition(step); err != nil {
				t.Fatalf("setup transition to %s failed: %v", step, err)
			}
		}
		before := m.Current()
		if err := m.Transition(tc.to); err != ErrTransitionNotAllowed {
			t.Errorf("Transition %s -> %s: expected ErrTransitionNotAllowed, got %v", before, tc.to, err)
		}
		if m.Current() != before {
			t.Errorf("Phase should remain %s after a blocked transition, got %s", before, m.Current())
		}
	}
}
