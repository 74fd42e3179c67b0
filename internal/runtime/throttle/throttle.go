// Package throttle wraps an adapter with a token-bucket rate limit on
// the model-invoking operations (chat, mode tests, tools). Discovery and
// lifecycle calls pass through untouched.
package throttle

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/ferrymanlabs/ferryman/internal/chat"
	"github.com/ferrymanlabs/ferryman/internal/runtime"
)

// Adapter decorates another adapter with rate limiting.
type Adapter struct {
	inner   runtime.Adapter
	limiter *rate.Limiter
}

var _ runtime.Adapter = (*Adapter)(nil)

// Wrap applies a limit of requestsPerSecond with the given burst to the
// inner adapter's invoking operations. Calls wait for a token rather
// than failing, honoring ctx. The returned adapter is a Streamer exactly
// when inner is one, so capability probes still see through the wrapper.
func Wrap(inner runtime.Adapter, requestsPerSecond float64, burst int) runtime.Adapter {
	a := &Adapter{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
	if _, ok := inner.(runtime.Streamer); ok {
		return &streamingAdapter{Adapter: a}
	}
	return a
}

func (a *Adapter) ID() string   { return a.inner.ID() }
func (a *Adapter) Name() string { return a.inner.Name() }

func (a *Adapter) Start(ctx context.Context) error { return a.inner.Start(ctx) }
func (a *Adapter) Stop() error                     { return a.inner.Stop() }

func (a *Adapter) Providers() []chat.Provider { return a.inner.Providers() }
func (a *Adapter) Tools() []chat.Tool         { return a.inner.Tools() }

func (a *Adapter) SetProviderOption(ctx context.Context, providerID, optionID string, value any) error {
	return a.inner.SetProviderOption(ctx, providerID, optionID, value)
}

func (a *Adapter) Chat(ctx context.Context, providerID string, messages []chat.Message) (chat.Message, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return chat.Message{}, err
	}
	return a.inner.Chat(ctx, providerID, messages)
}

// streamingAdapter is returned by Wrap for inner adapters that stream.
type streamingAdapter struct {
	*Adapter
}

var _ runtime.Streamer = (*streamingAdapter)(nil)

func (s *streamingAdapter) ChatStream(ctx context.Context, providerID string, messages []chat.Message, onChunk func(string)) (chat.Message, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return chat.Message{}, err
	}
	return s.inner.(runtime.Streamer).ChatStream(ctx, providerID, messages, onChunk)
}

func (a *Adapter) RunModeTest(ctx context.Context, providerID, mode string) (chat.Message, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return chat.Message{}, err
	}
	return a.inner.RunModeTest(ctx, providerID, mode)
}

func (a *Adapter) RunTool(ctx context.Context, toolID, providerID string) (chat.Message, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return chat.Message{}, err
	}
	return a.inner.RunTool(ctx, toolID, providerID)
}
