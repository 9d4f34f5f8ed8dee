package types

import "testing"

func TestStoryTransitions(t *testing.T) {
	m := Transitions(TypeStory)

	allowed := [][2]Status{
		{StatusPending, StatusInProgress},
		{StatusInProgress, StatusDone},
		{StatusInProgress, StatusBlocked},
		{StatusBlocked, StatusInProgress},
		{StatusPending, StatusCancelled},
		{StatusBlocked, StatusCancelled},
	}
	for _, edge := range allowed {
		if !m.CanTransition(edge[0], edge[1]) {
			t.Errorf("expected %s → %s to be allowed", edge[0], edge[1])
		}
	}

	denied := [][2]Status{
		{StatusPending, StatusDone}, // must go through in_progress
		{StatusDone, StatusInProgress},
		{StatusDone, StatusCancelled}, // terminal states have no exits
		{StatusCancelled, StatusPending},
		{StatusBlocked, StatusDone},
	}
	for _, edge := range denied {
		if m.CanTransition(edge[0], edge[1]) {
			t.Errorf("expected %s → %s to be rejected", edge[0], edge[1])
		}
	}
}

func TestEveryMachineHasTerminalStates(t *testing.T) {
	for _, itemType := range []ItemType{TypeEpic, TypeStory, TypeSprint, TypeRun} {
		m := Transitions(itemType)
		if len(m.Terminal) == 0 {
			t.Errorf("%s: machine has no terminal state", itemType)
		}
		for _, term := range m.Terminal {
			if outs := m.Edges[term]; len(outs) != 0 {
				t.Errorf("%s: terminal state %s has outgoing edges %v", itemType, term, outs)
			}
		}
	}
}

func TestDoneClass(t *testing.T) {
	if !Transitions(TypeStory).InDoneClass(StatusDone) {
		t.Error("story done should be in done class")
	}
	if Transitions(TypeStory).InDoneClass(StatusCancelled) {
		t.Error("cancelled is terminal but must not count as done")
	}
	if !Transitions(TypeRun).InDoneClass(StatusPassed) {
		t.Error("run passed should be in done class")
	}
	if Transitions(TypeRun).InDoneClass(StatusFailed) {
		t.Error("run failed must not count as done")
	}
}

func TestBlockedCycleOnlyThroughNamedStates(t *testing.T) {
	m := Transitions(TypeStory)
	// in_progress → blocked → in_progress is the one permitted cycle
	if !m.CanTransition(StatusInProgress, StatusBlocked) || !m.CanTransition(StatusBlocked, StatusInProgress) {
		t.Error("blocked/in_progress cycle must be permitted")
	}
}
