package types

// Machine is a per-type status graph: a finite set of states with directed
// edges and at least one terminal state. Cycles are permitted only through
// the named edges (e.g. blocked → in_progress).
type Machine struct {
	Initial  Status
	Edges    map[Status][]Status
	Terminal []Status

	// DoneClass lists the statuses that count toward a parent's completed
	// aggregate (e.g. story "done" contributes its points to the epic).
	DoneClass []Status
}

var storyMachine = Machine{
	Initial: StatusPending,
	Edges: map[Status][]Status{
		StatusPending:    {StatusInProgress, StatusBlocked, StatusCancelled},
		StatusInProgress: {StatusDone, StatusBlocked, StatusCancelled},
		StatusBlocked:    {StatusInProgress, StatusCancelled},
	},
	Terminal:  []Status{StatusDone, StatusCancelled},
	DoneClass: []Status{StatusDone},
}

var epicMachine = Machine{
	Initial: StatusPending,
	Edges: map[Status][]Status{
		StatusPending:    {StatusInProgress, StatusCancelled},
		StatusInProgress: {StatusDone, StatusCancelled},
	},
	Terminal:  []Status{StatusDone, StatusCancelled},
	DoneClass: []Status{StatusDone},
}

var sprintMachine = Machine{
	Initial: StatusPlanned,
	Edges: map[Status][]Status{
		StatusPlanned: {StatusActive, StatusCancelled},
		StatusActive:  {StatusClosed, StatusCancelled},
	},
	Terminal:  []Status{StatusClosed, StatusCancelled},
	DoneClass: []Status{StatusClosed},
}

var runMachine = Machine{
	Initial: StatusQueued,
	Edges: map[Status][]Status{
		StatusQueued:  {StatusRunning, StatusCancelled},
		StatusRunning: {StatusPassed, StatusFailed, StatusCancelled},
	},
	Terminal:  []Status{StatusPassed, StatusFailed, StatusCancelled},
	DoneClass: []Status{StatusPassed},
}

// Transitions returns the status machine for an item type.
func Transitions(t ItemType) Machine {
	switch t {
	case TypeStory:
		return storyMachine
	case TypeEpic:
		return epicMachine
	case TypeSprint:
		return sprintMachine
	case TypeRun:
		return runMachine
	}
	return Machine{}
}

// IsKnown reports whether s is a state of this machine.
func (m Machine) IsKnown(s Status) bool {
	if s == m.Initial {
		return true
	}
	if _, ok := m.Edges[s]; ok {
		return true
	}
	for _, t := range m.Terminal {
		if s == t {
			return true
		}
	}
	for _, outs := range m.Edges {
		for _, o := range outs {
			if s == o {
				return true
			}
		}
	}
	return false
}

// IsTerminal reports whether s is a terminal state.
func (m Machine) IsTerminal(s Status) bool {
	for _, t := range m.Terminal {
		if s == t {
			return true
		}
	}
	return false
}

// CanTransition reports whether the edge from → to exists in the machine.
// Self-transitions are never edges.
func (m Machine) CanTransition(from, to Status) bool {
	for _, next := range m.Edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InDoneClass reports whether s contributes to parent aggregates.
func (m Machine) InDoneClass(s Status) bool {
	for _, d := range m.DoneClass {
		if s == d {
			return true
		}
	}
	return false
}
