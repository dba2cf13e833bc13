package controller

// State is the lifecycle of one page.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Ready
	// Loading, Uploading and Deleting hold a request in flight; mutations are refused until it resolves.
	Loading
	Uploading
	Deleting
	// LoginRedirected is terminal: the user has to complete the login elsewhere.
	LoginRedirected
	// InitFailed is terminal: the page has to be reloaded.
	InitFailed
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Ready:
		return "ready"
	case Loading:
		return "loading"
	case Uploading:
		return "uploading"
	case Deleting:
		return "deleting"
	case LoginRedirected:
		return "login_redirected"
	case InitFailed:
		return "init_failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the page can no longer leave s.
func (s State) Terminal() bool {
	return s == LoginRedirected || s == InitFailed
}

// Active reports whether a session resolved and the page shows a gallery, possibly while a request is in flight.
func (s State) Active() bool {
	switch s {
	case Ready, Loading, Uploading, Deleting:
		return true
	}
	return false
}

// Level grades a status message.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Status is the message shown to the user after every operation.
type Status struct {
	Level   Level
	Message string
}
