package player

// State is a Scheduler lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StateLooping
	StateFinished
	StateInterrupted
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StateLooping:
		return "looping"
	case StateFinished:
		return "finished"
	case StateInterrupted:
		return "interrupted"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
