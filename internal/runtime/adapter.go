// Package runtime defines the adapter contract every chat runtime must
// satisfy, plus the registry that hosts use to switch between them.
//
// adapter.go - Adapter and Streamer interfaces
//
// A runtime is an interchangeable backend capable of serving chat and
// tool requests. It may live in-process (SDK-backed) or out of process
// behind a local socket (see the subprocess and containerized packages).
package runtime

import (
	"context"

	"github.com/ferrymanlabs/ferryman/internal/chat"
)

// Adapter is the capability set shared by all runtimes.
//
// Start is not required to be idempotent; implementations decide. It must
// either complete setup or fail with a descriptive error, never leaving
// the adapter half-initialized. Stop releases everything Start acquired
// and must not fail on an already-stopped adapter.
type Adapter interface {
	// ID returns the stable machine identifier of the runtime.
	ID() string

	// Name returns the human-readable label, defaulting to ID.
	Name() string

	// Start prepares the runtime for use.
	Start(ctx context.Context) error

	// Stop releases all resources acquired by Start.
	Stop() error

	// Providers lists the provider descriptors of this runtime.
	// Pure query: no side effects, immutable per runtime instance.
	Providers() []chat.Provider

	// SetProviderOption mutates a provider's runtime-held option value.
	// value must be a bool for boolean options or a choice ID string for
	// enum options; anything else fails with ErrOptionType.
	SetProviderOption(ctx context.Context, providerID, optionID string, value any) error

	// Chat sends the full conversation history and returns exactly one
	// new assistant message.
	Chat(ctx context.Context, providerID string, messages []chat.Message) (chat.Message, error)

	// RunModeTest runs a named built-in scenario against a provider.
	RunModeTest(ctx context.Context, providerID, mode string) (chat.Message, error)

	// Tools lists the runtime's utility tools. Empty when unsupported.
	Tools() []chat.Tool

	// RunTool executes a utility tool and returns its output as a
	// message. providerID may be empty for tools that do not target a
	// provider. Fails with ErrNoTools or ErrUnknownTool.
	RunTool(ctx context.Context, toolID, providerID string) (chat.Message, error)
}

// Streamer is the optional streaming capability. Adapters that can
// deliver partial text implement it in addition to Adapter; callers
// probe with a type assertion (or use ChatStream below) and fall back
// to Chat otherwise.
type Streamer interface {
	// ChatStream behaves like Adapter.Chat but invokes onChunk zero or
	// more times with partial text, in generation order, before
	// returning the final message.
	ChatStream(ctx context.Context, providerID string, messages []chat.Message, onChunk func(string)) (chat.Message, error)
}

// ChatStream streams a chat through a if it is a Streamer, otherwise
// falls back to a single Chat call with no chunk delivery.
func ChatStream(ctx context.Context, a Adapter, providerID string, messages []chat.Message, onChunk func(string)) (chat.Message, error) {
	if s, ok := a.(Streamer); ok {
		return s.ChatStream(ctx, providerID, messages, onChunk)
	}
	return a.Chat(ctx, providerID, messages)
}

// FindProvider returns the adapter's provider with the given ID.
func FindProvider(a Adapter, providerID string) (chat.Provider, bool) {
	for _, p := range a.Providers() {
		if p.ID == providerID {
			return p, true
		}
	}
	return chat.Provider{}, false
}

// ValidateOptionValue checks value against the option's declared type.
func ValidateOptionValue(opt chat.ProviderOption, value any) error {
	switch opt.Type {
	case chat.OptionBoolean:
		if _, ok := value.(bool); !ok {
			return ErrOptionType
		}
	case chat.OptionEnum:
		id, ok := value.(string)
		if !ok {
			return ErrOptionType
		}
		for _, c := range opt.Choices {
			if c.ID == id {
				return nil
			}
		}
		return ErrOptionType
	default:
		return ErrOptionType
	}
	return nil
}
