package relay

import "errors"

var (
	// ErrPermissionDenied signals an ownership check failure on delete.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrMessageNotFound signals a delete request for an unknown message id.
	ErrMessageNotFound = errors.New("message not found")
	// ErrNotJoined signals a chat event received before the join handshake.
	ErrNotJoined = errors.New("session has not joined")
	// ErrConnectionClosed signals an event received after disconnect.
	ErrConnectionClosed = errors.New("connection is closed")
)

// ValidationError reports a missing or malformed request field. It is reported
// to the caller synchronously; no mutation is performed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}
