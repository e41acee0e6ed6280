package pipeline

// State is a step of a pipeline run.
type State int

const (
	StateIdle State = iota
	StateReading
	StateClassifying
	StateTransforming
	StateAppending
	StateDraining
	StateFinalizing
	StateDone
	StateErrored
)

var stateNames = [...]string{
	StateIdle:         "idle",
	StateReading:      "reading",
	StateClassifying:  "classifying",
	StateTransforming: "transforming",
	StateAppending:    "appending",
	StateDraining:     "draining",
	StateFinalizing:   "finalizing",
	StateDone:         "done",
	StateErrored:      "errored",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateErrored
}
