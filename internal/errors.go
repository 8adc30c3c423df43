package internal

import "fmt"

// NetworkError wraps transport or non-2xx failures on the REST fetches
// (history, room directory). Recovered locally: the caller degrades to
// empty data and keeps the session alive.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// UploadError aborts a send before anything hits the socket. Composer text
// and the attachment selection stay put so the user can retry.
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("upload failed: %v", e.Err)
	}
	return fmt.Sprintf("upload %s: %v", e.Name, e.Err)
}
func (e *UploadError) Unwrap() error { return e.Err }

// ValidationError rejects a send attempt with no side effects.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ChannelError covers dial failures and lost connections. Surfaced as the
// connectivity indicator; reconnecting stays a user decision.
type ChannelError struct {
	Err error
}

func (e *ChannelError) Error() string { return fmt.Sprintf("channel: %v", e.Err) }
func (e *ChannelError) Unwrap() error { return e.Err }
