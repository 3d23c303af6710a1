package predict

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var (
	ErrTransport = errors.New("predict transport failure")
	ErrRemote    = errors.New("predict rejected by web ui")
	ErrProtocol  = errors.New("malformed predict response")
)

// TransportError reports a request that never produced a readable response.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error        { return e.Err }
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// RemoteError is returned when the web ui answers with an error payload. The
// payload itself is only logged; it rarely says more than "Error".
type RemoteError struct {
	FnIndex int
	payload json.RawMessage
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("fn_index %d: check your arguments", e.FnIndex)
}

func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", ErrProtocol, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v: %s", ErrProtocol, e.Reason)
}

func (e *ProtocolError) Unwrap() error        { return e.Err }
func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }
