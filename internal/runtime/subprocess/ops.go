package subprocess

import (
	"context"
	"fmt"

	"github.com/ferrymanlabs/ferryman/internal/chat"
	"github.com/ferrymanlabs/ferryman/internal/metrics"
	"github.com/ferrymanlabs/ferryman/internal/runtime"
)

// The chat-facing operations are thin: validate against the descriptors
// cached at Start, build a request, let rpc.Client do the exchange, and
// map the parsed result into a chat.Message.

// Providers returns the descriptors discovered at Start.
func (a *Adapter) Providers() []chat.Provider {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]chat.Provider, len(a.providers))
	copy(out, a.providers)
	return out
}

// Tools returns the tool descriptors discovered at Start.
func (a *Adapter) Tools() []chat.Tool {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]chat.Tool, len(a.tools))
	copy(out, a.tools)
	return out
}

// SetProviderOption validates the mutation against the cached descriptor
// and forwards it to the runtime process.
func (a *Adapter) SetProviderOption(ctx context.Context, providerID, optionID string, value any) error {
	p, err := a.provider(providerID)
	if err != nil {
		return err
	}
	opt, ok := p.Option(optionID)
	if !ok {
		return fmt.Errorf("%w: %s.%s", runtime.ErrUnknownOption, providerID, optionID)
	}
	if err := runtime.ValidateOptionValue(opt, value); err != nil {
		return fmt.Errorf("%w: %s.%s", err, providerID, optionID)
	}
	return a.client.SetOption(ctx, providerID, optionID, value)
}

// Chat sends the conversation to the runtime process and returns the new
// assistant message.
func (a *Adapter) Chat(ctx context.Context, providerID string, messages []chat.Message) (chat.Message, error) {
	if _, err := a.provider(providerID); err != nil {
		return chat.Message{}, err
	}
	msg, err := a.client.Chat(ctx, providerID, messages)
	metrics.RecordChat(a.id, providerID, err)
	return msg, err
}

// RunModeTest runs a named built-in scenario against a provider.
func (a *Adapter) RunModeTest(ctx context.Context, providerID, mode string) (chat.Message, error) {
	if _, err := a.provider(providerID); err != nil {
		return chat.Message{}, err
	}
	return a.client.ModeTest(ctx, providerID, mode)
}

// RunTool executes a utility tool in the runtime process.
func (a *Adapter) RunTool(ctx context.Context, toolID, providerID string) (chat.Message, error) {
	a.mu.Lock()
	tools := a.tools
	started := a.cmd != nil
	a.mu.Unlock()

	if !started {
		return chat.Message{}, fmt.Errorf("%w: %s", runtime.ErrNotStarted, a.id)
	}
	if len(tools) == 0 {
		return chat.Message{}, fmt.Errorf("%w: %s", runtime.ErrNoTools, a.id)
	}
	known := false
	for _, t := range tools {
		if t.ID == toolID {
			known = true
			break
		}
	}
	if !known {
		return chat.Message{}, fmt.Errorf("%w: %s", runtime.ErrUnknownTool, toolID)
	}

	msg, err := a.client.RunTool(ctx, toolID, providerID)
	metrics.RecordToolCall(a.id, toolID, err)
	return msg, err
}

// provider looks up a cached provider descriptor, reporting ErrNotStarted
// when discovery has not run yet.
func (a *Adapter) provider(providerID string) (chat.Provider, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cmd == nil {
		return chat.Provider{}, fmt.Errorf("%w: %s", runtime.ErrNotStarted, a.id)
	}
	for _, p := range a.providers {
		if p.ID == providerID {
			return p, nil
		}
	}
	return chat.Provider{}, fmt.Errorf("%w: %s", runtime.ErrUnknownProvider, providerID)
}
