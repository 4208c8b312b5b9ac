package editloop

// State is a step of the edit loop.
type State uint8

// States in the order a successful first round visits them.
// A failed round goes Parsing -> Annotating -> Editing.
const (
	StateIdle State = iota
	StateLocking
	StateEditing
	StateParsing
	StateAnnotating
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLocking:
		return "locking"
	case StateEditing:
		return "editing"
	case StateParsing:
		return "parsing"
	case StateAnnotating:
		return "annotating"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
