package engine

import "fmt"

// NotRegisteredError reports a command that requires a registered channel.
type NotRegisteredError struct {
	Channel string
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("channel %s is not registered", e.Channel)
}

// AlreadyRunningError reports a start on a channel whose game is in
// session.
type AlreadyRunningError struct {
	Channel string
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("game is already running in %s", e.Channel)
}

// NotRunningError reports an end on a channel with no game in session.
type NotRunningError struct {
	Channel string
}

func (e *NotRunningError) Error() string {
	return fmt.Sprintf("no game is currently running in %s", e.Channel)
}
