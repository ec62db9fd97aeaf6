package app

// State is the lifecycle state of a managed app.
//
// NotExist means the applied config points at a missing executable; the poll
// loop leaves the app alone until the config is corrected. Closed is
// terminal: leaving it requires an explicit Start or Restart.
type State int

const (
	StateNotExist State = iota
	StateNotRunning
	StateRunning
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNotExist:
		return "not_exist"
	case StateNotRunning:
		return "not_running"
	case StateRunning:
		return "running"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
