package capture

type State int

const (
	StateStopped State = iota
	StateStarting
	StateListening
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateListening:
		return "listening"
	default:
		return "stopped"
	}
}

type Event int

const (
	EventStart Event = iota
	EventPermissionDenied
	EventStarted
	EventResult
	EventError
	EventStop
	EventForeground
	EventBackground
)

func (e Event) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventPermissionDenied:
		return "permission_denied"
	case EventStarted:
		return "started"
	case EventResult:
		return "result"
	case EventError:
		return "error"
	case EventStop:
		return "stop"
	case EventForeground:
		return "foreground"
	case EventBackground:
		return "background"
	default:
		return "unknown"
	}
}

// transition returns the state after e. Events that do not apply to s leave it unchanged.
func transition(s State, e Event) State {
	switch e {
	case EventStart:
		if s == StateStopped {
			return StateStarting
		}
	case EventPermissionDenied:
		if s == StateStarting {
			return StateStopped
		}
	case EventStarted:
		if s == StateStarting {
			return StateListening
		}
	case EventResult, EventError, EventStop, EventBackground:
		return StateStopped
	case EventForeground:
		// a pending start keeps going, anything else is torn down and restarted
		if s == StateListening {
			return StateStopped
		}
	}

	return s
}
