package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

// serve runs a one-object-per-connection responder at socketPath. The
// handler receives the full request body and returns the raw response
// bytes to write before closing the connection.
func serve(t *testing.T, socketPath string, handler func(req []byte) []byte) {
	t.Helper()

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer func() { _ = conn.Close() }()
				req, err := io.ReadAll(conn)
				if err != nil {
					return
				}
				if resp := handler(req); len(resp) > 0 {
					_, _ = conn.Write(resp)
				}
			}(conn)
		}
	}()
}

func TestCallNoListener(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "missing.sock")

	err := Call(context.Background(), socketPath, map[string]string{"op": "ping"}, nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
}

func TestCallEmptyResponse(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "rt.sock")
	serve(t, socketPath, func([]byte) []byte { return nil })

	err := Call(context.Background(), socketPath, map[string]string{"op": "ping"}, nil)
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %T: %v", err, err)
	}
	if got, want := err.Error(), "parse error: empty response"; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestCallInvalidJSON(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "rt.sock")
	serve(t, socketPath, func([]byte) []byte { return []byte("not json{") })

	err := Call(context.Background(), socketPath, map[string]string{"op": "ping"}, nil)
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %T: %v", err, err)
	}
}

func TestCallRemoteError(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "rt.sock")
	serve(t, socketPath, func([]byte) []byte {
		return []byte(`{"error": "boom"}`)
	})

	err := Call(context.Background(), socketPath, map[string]string{"op": "ping"}, nil)
	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError, got %T: %v", err, err)
	}
	// The remote message is surfaced verbatim, no prefix.
	if err.Error() != "boom" {
		t.Errorf("error = %q, want %q", err.Error(), "boom")
	}
}

func TestCallSuccess(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "rt.sock")
	serve(t, socketPath, func(req []byte) []byte {
		var decoded map[string]any
		if err := json.Unmarshal(req, &decoded); err != nil {
			t.Errorf("server could not decode request: %v", err)
		}
		if decoded["op"] != "ping" {
			t.Errorf("server saw op %v, want ping", decoded["op"])
		}
		return []byte(`{"ok": true, "value": 42}`)
	})

	var result map[string]any
	if err := Call(context.Background(), socketPath, map[string]string{"op": "ping"}, &result); err != nil {
		t.Fatalf("Call: %v", err)
	}
	want := map[string]any{"ok": true, "value": float64(42)}
	if !reflect.DeepEqual(result, want) {
		t.Errorf("result = %v, want %v", result, want)
	}
}

func TestCallNilResultDiscardsBody(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "rt.sock")
	serve(t, socketPath, func([]byte) []byte { return []byte(`{"ok": true}`) })

	if err := Call(context.Background(), socketPath, map[string]string{"op": "set"}, nil); err != nil {
		t.Fatalf("Call: %v", err)
	}
}

// Concurrent calls each get their own connection; responses must not
// cross between requests.
func TestCallConcurrent(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "rt.sock")
	serve(t, socketPath, func(req []byte) []byte {
		var decoded struct {
			N int `json:"n"`
		}
		if err := json.Unmarshal(req, &decoded); err != nil {
			return []byte(`{"error": "bad request"}`)
		}
		return []byte(fmt.Sprintf(`{"n": %d}`, decoded.N))
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			var result struct {
				N int `json:"n"`
			}
			if err := Call(context.Background(), socketPath, map[string]int{"n": n}, &result); err != nil {
				t.Errorf("Call(%d): %v", n, err)
				return
			}
			if result.N != n {
				t.Errorf("Call(%d) got response for %d", n, result.N)
			}
		}(i)
	}
	wg.Wait()
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	if got := (&TransportError{Err: cause}).Error(); got != "transport error: connection refused" {
		t.Errorf("TransportError = %q", got)
	}
	if !errors.Is(&TransportError{Err: cause}, cause) {
		t.Error("TransportError does not unwrap to its cause")
	}
	if !errors.Is(&ProtocolError{Err: cause}, cause) {
		t.Error("ProtocolError does not unwrap to its cause")
	}
}
