package protocol

// State is the lifecycle state of a Channel.
type State int

const (
	Uninstantiated State = iota
	Connecting
	Open
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Uninstantiated:
		return "uninstantiated"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}
