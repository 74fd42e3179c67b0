// Package inproc provides an in-process runtime that serves the full
// adapter contract without any subprocess machinery. It backs local
// demos and is the reference implementation the contract tests lean on:
// a provider with both option kinds, streaming support, mode tests and
// a couple of utility tools.
package inproc

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ferrymanlabs/ferryman/internal/chat"
	"github.com/ferrymanlabs/ferryman/internal/runtime"
)

const (
	providerEcho = "echo"

	optionUppercase = "uppercase"
	optionPersona   = "persona"

	personaPlain  = "plain"
	personaPirate = "pirate"

	toolClock  = "clock"
	toolWhoAmI = "whoami"
)

// Adapter is the in-process echo runtime.
type Adapter struct {
	id   string
	name string

	mu      sync.Mutex
	started bool
	// option values per provider, seeded from defaults at Start
	options map[string]map[string]any
}

var (
	_ runtime.Adapter  = (*Adapter)(nil)
	_ runtime.Streamer = (*Adapter)(nil)
)

// New creates the in-process runtime under its default identity.
func New() *Adapter {
	return NewNamed("inproc", "In-Process Echo")
}

// NewNamed creates the in-process runtime with a caller-chosen identity,
// for hosts that declare it in configuration. name may be empty, in
// which case the ID doubles as the display name.
func NewNamed(id, name string) *Adapter {
	if name == "" {
		name = id
	}
	return &Adapter{id: id, name: name}
}

func (a *Adapter) ID() string   { return a.id }
func (a *Adapter) Name() string { return a.name }

// Start seeds option values from their defaults.
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.options = make(map[string]map[string]any)
	for _, p := range a.Providers() {
		vals := make(map[string]any, len(p.Options))
		for _, o := range p.Options {
			switch o.Type {
			case chat.OptionBoolean:
				vals[o.ID] = o.BoolDefault
			case chat.OptionEnum:
				vals[o.ID] = o.EnumDefault
			}
		}
		a.options[p.ID] = vals
	}
	a.started = true
	return nil
}

// Stop discards option state. Safe before Start and called twice.
func (a *Adapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.started = false
	a.options = nil
	return nil
}

// Providers describes the single echo provider.
func (a *Adapter) Providers() []chat.Provider {
	return []chat.Provider{{
		ID:         providerEcho,
		Name:       "Echo",
		InputModes: []chat.InputMode{chat.ModeText, chat.ModeFile},
		Options: []chat.ProviderOption{
			{
				ID:          optionUppercase,
				Name:        "Uppercase replies",
				Type:        chat.OptionBoolean,
				BoolDefault: false,
			},
			{
				ID:          optionPersona,
				Name:        "Persona",
				Type:        chat.OptionEnum,
				EnumDefault: personaPlain,
				Choices: []chat.OptionChoice{
					{ID: personaPlain, Label: "Plain"},
					{ID: personaPirate, Label: "Pirate"},
				},
			},
		},
	}}
}

// SetProviderOption mutates a runtime-held option value.
func (a *Adapter) SetProviderOption(ctx context.Context, providerID, optionID string, value any) error {
	p, ok := runtime.FindProvider(a, providerID)
	if !ok {
		return fmt.Errorf("%w: %s", runtime.ErrUnknownProvider, providerID)
	}
	opt, ok := p.Option(optionID)
	if !ok {
		return fmt.Errorf("%w: %s.%s", runtime.ErrUnknownOption, providerID, optionID)
	}
	if err := runtime.ValidateOptionValue(opt, value); err != nil {
		return fmt.Errorf("%w: %s.%s", err, providerID, optionID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return fmt.Errorf("%w: %s", runtime.ErrNotStarted, a.id)
	}
	a.options[providerID][optionID] = value
	return nil
}

// Chat returns one assistant message echoing the last user turn,
// shaped by the provider's current option values.
func (a *Adapter) Chat(ctx context.Context, providerID string, messages []chat.Message) (chat.Message, error) {
	reply, err := a.reply(providerID, messages)
	if err != nil {
		return chat.Message{}, err
	}
	return chat.TextMessage(chat.RoleAssistant, reply), nil
}

// ChatStream delivers the reply word by word before returning it whole.
func (a *Adapter) ChatStream(ctx context.Context, providerID string, messages []chat.Message, onChunk func(string)) (chat.Message, error) {
	reply, err := a.reply(providerID, messages)
	if err != nil {
		return chat.Message{}, err
	}
	if onChunk != nil {
		words := strings.SplitAfter(reply, " ")
		for _, w := range words {
			if w == "" {
				continue
			}
			select {
			case <-ctx.Done():
				return chat.Message{}, ctx.Err()
			default:
			}
			onChunk(w)
		}
	}
	return chat.TextMessage(chat.RoleAssistant, reply), nil
}

// RunModeTest serves the built-in scenarios used by test harnesses.
func (a *Adapter) RunModeTest(ctx context.Context, providerID, mode string) (chat.Message, error) {
	if _, ok := runtime.FindProvider(a, providerID); !ok {
		return chat.Message{}, fmt.Errorf("%w: %s", runtime.ErrUnknownProvider, providerID)
	}
	switch mode {
	case "ping":
		return chat.TextMessage(chat.RoleAssistant, "pong"), nil
	case "modes":
		var modes []string
		p, _ := runtime.FindProvider(a, providerID)
		for _, m := range p.InputModes {
			modes = append(modes, string(m))
		}
		return chat.TextMessage(chat.RoleAssistant, strings.Join(modes, ", ")), nil
	default:
		return chat.Message{}, fmt.Errorf("unknown mode test %q", mode)
	}
}

// Tools lists the local utility tools.
func (a *Adapter) Tools() []chat.Tool {
	return []chat.Tool{
		{ID: toolClock, Name: "Clock", Description: "Report the current time"},
		{ID: toolWhoAmI, Name: "Who am I", Description: "Report the runtime identity"},
	}
}

// RunTool executes a utility tool.
func (a *Adapter) RunTool(ctx context.Context, toolID, providerID string) (chat.Message, error) {
	switch toolID {
	case toolClock:
		return chat.TextMessage(chat.RoleAssistant, time.Now().Format(time.RFC3339)), nil
	case toolWhoAmI:
		return chat.TextMessage(chat.RoleAssistant, a.name), nil
	default:
		return chat.Message{}, fmt.Errorf("%w: %s", runtime.ErrUnknownTool, toolID)
	}
}

// reply computes the echo reply for the last user message.
func (a *Adapter) reply(providerID string, messages []chat.Message) (string, error) {
	if _, ok := runtime.FindProvider(a, providerID); !ok {
		return "", fmt.Errorf("%w: %s", runtime.ErrUnknownProvider, providerID)
	}

	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return "", fmt.Errorf("%w: %s", runtime.ErrNotStarted, a.id)
	}
	vals := a.options[providerID]
	uppercase, _ := vals[optionUppercase].(bool)
	persona, _ := vals[optionPersona].(string)
	a.mu.Unlock()

	var lastUser string
	for _, m := range messages {
		if m.Role == chat.RoleUser {
			lastUser = m.Text()
		}
	}

	reply := "You said: " + lastUser
	if persona == personaPirate {
		reply = "Arr! " + reply
	}
	if uppercase {
		reply = strings.ToUpper(reply)
	}
	return reply, nil
}
