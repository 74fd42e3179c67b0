package rpc

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ferrymanlabs/ferryman/internal/chat"
	"github.com/ferrymanlabs/ferryman/internal/logger"
	"github.com/ferrymanlabs/ferryman/internal/metrics"
)

// Client is the typed operation layer over Call, shared by every
// socket-backed adapter (subprocess or containerized). Each method is a
// thin envelope: an operation tag plus arguments.
type Client struct {
	// SocketPath is the filesystem path of the runtime's socket.
	SocketPath string

	// Runtime is the owning runtime's ID, used for log correlation.
	Runtime string
}

// request is the wire envelope for all operations.
type request struct {
	Op       string         `json:"op"`
	Provider string         `json:"provider_id,omitempty"`
	Option   string         `json:"option_id,omitempty"`
	Value    any            `json:"value,omitempty"`
	Mode     string         `json:"mode,omitempty"`
	Tool     string         `json:"tool_id,omitempty"`
	Messages []chat.Message `json:"messages,omitempty"`
}

func (c *Client) do(ctx context.Context, req request, result any) error {
	id := uuid.NewString()
	start := time.Now()
	err := Call(ctx, c.SocketPath, req, result)
	elapsed := time.Since(start)
	metrics.ObserveRPC(c.Runtime, req.Op, elapsed)
	logger.Slog().Debug("runtime rpc",
		"runtime", c.Runtime,
		"op", req.Op,
		"request_id", id,
		"duration", elapsed,
		"err", err)
	return err
}

// Providers fetches the runtime's provider descriptors.
func (c *Client) Providers(ctx context.Context) ([]chat.Provider, error) {
	var resp struct {
		Providers []chat.Provider `json:"providers"`
	}
	if err := c.do(ctx, request{Op: "providers"}, &resp); err != nil {
		return nil, err
	}
	return resp.Providers, nil
}

// Chat sends the conversation history and returns the new assistant
// message.
func (c *Client) Chat(ctx context.Context, providerID string, messages []chat.Message) (chat.Message, error) {
	var resp struct {
		Message chat.Message `json:"message"`
	}
	err := c.do(ctx, request{Op: "chat", Provider: providerID, Messages: messages}, &resp)
	return resp.Message, err
}

// SetOption forwards a provider option mutation.
func (c *Client) SetOption(ctx context.Context, providerID, optionID string, value any) error {
	return c.do(ctx, request{Op: "set_option", Provider: providerID, Option: optionID, Value: value}, nil)
}

// ModeTest runs a named built-in scenario against a provider.
func (c *Client) ModeTest(ctx context.Context, providerID, mode string) (chat.Message, error) {
	var resp struct {
		Message chat.Message `json:"message"`
	}
	err := c.do(ctx, request{Op: "mode_test", Provider: providerID, Mode: mode}, &resp)
	return resp.Message, err
}

// Tools lists the runtime's utility tools.
func (c *Client) Tools(ctx context.Context) ([]chat.Tool, error) {
	var resp struct {
		Tools []chat.Tool `json:"tools"`
	}
	if err := c.do(ctx, request{Op: "tools"}, &resp); err != nil {
		return nil, err
	}
	return resp.Tools, nil
}

// RunTool executes a utility tool and returns its output message.
func (c *Client) RunTool(ctx context.Context, toolID, providerID string) (chat.Message, error) {
	var resp struct {
		Message chat.Message `json:"message"`
	}
	err := c.do(ctx, request{Op: "run_tool", Tool: toolID, Provider: providerID}, &resp)
	return resp.Message, err
}
