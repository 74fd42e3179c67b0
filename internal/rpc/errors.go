package rpc

// The three failure kinds of a socket exchange, kept as distinct types so
// callers can discriminate with errors.As:
//
//   - TransportError: the connection could not be established, was reset,
//     or died before the response was fully read.
//   - ProtocolError: the response bytes were empty or not valid JSON.
//   - RemoteError: the response was valid JSON carrying a top-level
//     "error" field; the runtime itself reported the failure.

// TransportError wraps a socket-level failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport error: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError wraps a response that could not be parsed.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string { return "parse error: " + e.Err.Error() }
func (e *ProtocolError) Unwrap() error { return e.Err }

// RemoteError carries an application-level failure reported by the
// runtime. Error returns the remote message verbatim.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return e.Message }
