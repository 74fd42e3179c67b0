package rpc

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/ferrymanlabs/ferryman/internal/chat"
)

func TestClientChat(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "rt.sock")
	serve(t, socketPath, func(req []byte) []byte {
		var decoded struct {
			Op       string         `json:"op"`
			Provider string         `json:"provider_id"`
			Messages []chat.Message `json:"messages"`
		}
		if err := json.Unmarshal(req, &decoded); err != nil {
			return []byte(`{"error": "bad request"}`)
		}
		if decoded.Op != "chat" || decoded.Provider != "echo" || len(decoded.Messages) != 1 {
			return []byte(`{"error": "unexpected envelope"}`)
		}
		resp, _ := json.Marshal(map[string]any{
			"message": chat.TextMessage(chat.RoleAssistant, "hi there"),
		})
		return resp
	})

	c := &Client{SocketPath: socketPath, Runtime: "test"}
	msg, err := c.Chat(context.Background(), "echo", []chat.Message{
		chat.TextMessage(chat.RoleUser, "hello"),
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if msg.Role != chat.RoleAssistant || msg.Text() != "hi there" {
		t.Errorf("got %v %q", msg.Role, msg.Text())
	}
}

func TestClientProviders(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "rt.sock")
	serve(t, socketPath, func(req []byte) []byte {
		var decoded struct {
			Op string `json:"op"`
		}
		_ = json.Unmarshal(req, &decoded)
		if decoded.Op != "providers" {
			return []byte(`{"error": "unexpected op"}`)
		}
		return []byte(`{"providers": [{"id": "p1", "name": "One", "input_modes": ["text"]}]}`)
	})

	c := &Client{SocketPath: socketPath, Runtime: "test"}
	providers, err := c.Providers(context.Background())
	if err != nil {
		t.Fatalf("Providers: %v", err)
	}
	if len(providers) != 1 || providers[0].ID != "p1" {
		t.Fatalf("providers = %+v", providers)
	}
	if !providers[0].Supports(chat.ModeText) {
		t.Error("provider should support text mode")
	}
}
