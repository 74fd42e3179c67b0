// Package rpc implements the request/response primitive used to talk to
// socket-backed runtimes.
//
// The protocol is deliberately minimal: one unix-socket connection per
// request, a single JSON object each way, and no framing beyond stream
// close. The sender half-closes its write side after the request; the
// responder closes the connection after the full response. Message
// boundary is connection close, so neither end may reuse or multiplex a
// connection without bumping the protocol.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
)

// Call performs one request/response exchange against the socket at
// socketPath. The request is marshalled to JSON; the response is read
// until EOF and unmarshalled into result (which may be nil to discard
// the payload).
//
// Failures map onto the taxonomy in errors.go. A top-level "error"
// field in an otherwise valid response object is surfaced as a
// RemoteError, never as a successful result. Call performs no retries
// and enforces no deadline of its own; ctx bounds connection
// establishment only, matching the lifecycle rules in the runtime
// package. Concurrent Calls against the same path are independent, each
// on its own connection.
func Call(ctx context.Context, socketPath string, request, result any) error {
	payload, err := json.Marshal(request)
	if err != nil {
		return &ProtocolError{Err: err}
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.Write(payload); err != nil {
		return &TransportError{Err: err}
	}
	// Half-close: signal end of request while keeping the read side open.
	if uc, ok := conn.(*net.UnixConn); ok {
		if err := uc.CloseWrite(); err != nil {
			return &TransportError{Err: err}
		}
	}

	data, err := io.ReadAll(conn)
	if err != nil {
		return &TransportError{Err: err}
	}
	return decode(data, result)
}

// decode parses a complete response body.
func decode(data []byte, result any) error {
	if len(data) == 0 {
		return &ProtocolError{Err: errors.New("empty response")}
	}

	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return &ProtocolError{Err: err}
	}
	if probe.Error != "" {
		return &RemoteError{Message: probe.Error}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return &ProtocolError{Err: err}
	}
	return nil
}
