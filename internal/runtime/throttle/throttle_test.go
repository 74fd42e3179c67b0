package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/ferrymanlabs/ferryman/internal/chat"
	"github.com/ferrymanlabs/ferryman/internal/runtime"
	"github.com/ferrymanlabs/ferryman/internal/runtime/inproc"
)

func TestWrapPreservesStreamingCapability(t *testing.T) {
	// inproc streams, so the wrapper must too.
	wrapped := Wrap(inproc.New(), 10, 1)
	if _, ok := wrapped.(runtime.Streamer); !ok {
		t.Error("wrapping a streaming adapter lost the Streamer capability")
	}

	// A bare Adapter must not gain streaming from the wrapper.
	wrapped = Wrap(plainAdapter{}, 10, 1)
	if _, ok := wrapped.(runtime.Streamer); ok {
		t.Error("wrapping a non-streaming adapter invented a Streamer capability")
	}
}

func TestChatWaitsForTokens(t *testing.T) {
	inner := inproc.New()
	if err := inner.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = inner.Stop() }()

	// 20 rps, burst 1: the second call has to wait roughly 50ms.
	a := Wrap(inner, 20, 1)
	ctx := context.Background()
	messages := []chat.Message{chat.TextMessage(chat.RoleUser, "hi")}

	if _, err := a.Chat(ctx, "echo", messages); err != nil {
		t.Fatalf("first Chat: %v", err)
	}
	start := time.Now()
	if _, err := a.Chat(ctx, "echo", messages); err != nil {
		t.Fatalf("second Chat: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Errorf("second Chat returned after %v, expected it to wait", elapsed)
	}
}

func TestChatHonorsContext(t *testing.T) {
	inner := inproc.New()
	if err := inner.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = inner.Stop() }()

	a := Wrap(inner, 0.01, 1)
	ctx := context.Background()
	messages := []chat.Message{chat.TextMessage(chat.RoleUser, "hi")}

	// Drain the burst token.
	if _, err := a.Chat(ctx, "echo", messages); err != nil {
		t.Fatalf("first Chat: %v", err)
	}

	canceled, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := a.Chat(canceled, "echo", messages); err == nil {
		t.Error("Chat should fail when the context expires while waiting")
	}
}

func TestPassThrough(t *testing.T) {
	inner := inproc.New()
	a := Wrap(inner, 100, 10)

	if a.ID() != inner.ID() || a.Name() != inner.Name() {
		t.Error("identity not passed through")
	}
	if len(a.Providers()) != len(inner.Providers()) {
		t.Error("providers not passed through")
	}
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := a.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

// plainAdapter implements only the base contract.
type plainAdapter struct{}

func (plainAdapter) ID() string                      { return "plain" }
func (plainAdapter) Name() string                    { return "plain" }
func (plainAdapter) Start(ctx context.Context) error { return nil }
func (plainAdapter) Stop() error                     { return nil }
func (plainAdapter) Providers() []chat.Provider      { return nil }
func (plainAdapter) Tools() []chat.Tool              { return nil }

func (plainAdapter) SetProviderOption(ctx context.Context, providerID, optionID string, value any) error {
	return nil
}

func (plainAdapter) Chat(ctx context.Context, providerID string, messages []chat.Message) (chat.Message, error) {
	return chat.Message{}, nil
}

func (plainAdapter) RunModeTest(ctx context.Context, providerID, mode string) (chat.Message, error) {
	return chat.Message{}, nil
}

func (plainAdapter) RunTool(ctx context.Context, toolID, providerID string) (chat.Message, error) {
	return chat.Message{}, nil
}
