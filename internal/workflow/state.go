package workflow

// State is a step of the resume tailoring workflow
type State int

const (
	StateIdle State = iota
	StateAnalyzing
	StateResults
	StateTemplateSelection
	StateEditing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAnalyzing:
		return "analyzing"
	case StateResults:
		return "results"
	case StateTemplateSelection:
		return "template_selection"
	case StateEditing:
		return "editing"
	}
	return "unknown"
}

// transitions lists the allowed edges. A failed analysis returning to its
// pre-call state and loading a history entry bypass this table.
var transitions = map[State][]State{
	StateIdle:              {StateAnalyzing},
	StateAnalyzing:         {StateResults},
	StateResults:           {StateTemplateSelection, StateIdle},
	StateTemplateSelection: {StateEditing},
	StateEditing:           {StateTemplateSelection},
}

// CanTransition reports whether from→to is an allowed edge
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
