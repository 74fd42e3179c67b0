// Package containerized runs a runtime inside a container instead of a
// bare subprocess. The socket directory is bind-mounted from the host,
// so the listener the runtime opens inside the container is reachable
// at a host path and the usual socket protocol applies unchanged.
package containerized

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ferrymanlabs/ferryman/internal/chat"
	"github.com/ferrymanlabs/ferryman/internal/container"
	"github.com/ferrymanlabs/ferryman/internal/logger"
	"github.com/ferrymanlabs/ferryman/internal/rpc"
	"github.com/ferrymanlabs/ferryman/internal/runtime"
)

const (
	readyPollInterval = 100 * time.Millisecond
	readyPollAttempts = 50

	// containerSocketDir is where the runtime inside the container is
	// told to place its socket; the host side binds over it.
	containerSocketDir = "/var/run/ferryman"
)

// Config describes the container-backed runtime.
type Config struct {
	ID    string
	Name  string
	Image string
	// Cmd overrides the image's default command. The socket path inside
	// the container is appended as "--socket <path>".
	Cmd []string
	// SocketDir is the host directory bind-mounted into the container.
	SocketDir string
}

// Adapter supervises one container and serves the adapter contract over
// its published socket.
type Adapter struct {
	id     string
	name   string
	cfg    Config
	engine container.Runtime
	client *rpc.Client

	pollInterval time.Duration
	pollAttempts int

	mu          sync.Mutex
	containerID string
	providers   []chat.Provider
	tools       []chat.Tool
}

var _ runtime.Adapter = (*Adapter)(nil)

// New creates a container-backed adapter on the given engine.
func New(cfg Config, engine container.Runtime) *Adapter {
	if cfg.Name == "" {
		cfg.Name = cfg.ID
	}
	a := &Adapter{
		id:           cfg.ID,
		name:         cfg.Name,
		cfg:          cfg,
		engine:       engine,
		pollInterval: readyPollInterval,
		pollAttempts: readyPollAttempts,
	}
	a.client = &rpc.Client{SocketPath: a.hostSocketPath(), Runtime: cfg.ID}
	return a
}

func (a *Adapter) ID() string   { return a.id }
func (a *Adapter) Name() string { return a.name }

// SocketPath returns the host side of the bind-mounted runtime socket.
func (a *Adapter) SocketPath() string { return a.hostSocketPath() }

func (a *Adapter) hostSocketPath() string {
	return filepath.Join(a.cfg.SocketDir, a.id+".sock")
}

func (a *Adapter) containerSocketPath() string {
	return filepath.Join(containerSocketDir, a.id+".sock")
}

// Start ensures the image is present, creates and starts the container
// with the socket directory bind-mounted, and waits for the socket to
// appear on the host side.
func (a *Adapter) Start(ctx context.Context) error {
	if err := a.engine.Ping(ctx); err != nil {
		return fmt.Errorf("%s: container engine %s unavailable: %w", a.name, a.engine.Name(), err)
	}

	present, err := a.engine.ImageExists(ctx, a.cfg.Image)
	if err != nil {
		return fmt.Errorf("%s: check image: %w", a.name, err)
	}
	if !present {
		logger.WithRuntime(a.id).Info("pulling runtime image", "image", a.cfg.Image)
		if err := a.engine.Pull(ctx, a.cfg.Image); err != nil {
			return fmt.Errorf("%s: pull image: %w", a.name, err)
		}
	}

	socketPath := a.hostSocketPath()
	if err := os.Remove(socketPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: remove stale socket %s: %w", a.name, socketPath, err)
	}

	cmd := append(append([]string{}, a.cfg.Cmd...), "--socket", a.containerSocketPath())
	id, err := a.engine.Create(ctx, container.CreateConfig{
		Name:  "ferryman-" + a.id,
		Image: a.cfg.Image,
		Cmd:   cmd,
		Labels: map[string]string{
			"ferryman.runtime": a.id,
		},
		Mounts: []container.Mount{{
			Type:   container.MountTypeBind,
			Source: a.cfg.SocketDir,
			Target: containerSocketDir,
		}},
		AutoRemove: false,
	})
	if err != nil {
		return fmt.Errorf("%s: create container: %w", a.name, err)
	}
	a.mu.Lock()
	a.containerID = id
	a.mu.Unlock()

	if err := a.engine.Start(ctx, id); err != nil {
		return fmt.Errorf("%s: start container: %w", a.name, err)
	}

	if err := a.waitReady(ctx, socketPath); err != nil {
		return err
	}

	providers, err := a.client.Providers(ctx)
	if err != nil {
		return fmt.Errorf("%s: provider discovery: %w", a.name, err)
	}
	tools, err := a.client.Tools(ctx)
	if err != nil {
		return fmt.Errorf("%s: tool discovery: %w", a.name, err)
	}
	a.mu.Lock()
	a.providers, a.tools = providers, tools
	a.mu.Unlock()

	logger.WithRuntime(a.id).Info("container runtime started",
		"container", id, "socket", socketPath,
		"providers", len(providers), "tools", len(tools))
	return nil
}

func (a *Adapter) waitReady(ctx context.Context, socketPath string) error {
	for i := 0; i < a.pollAttempts; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: waiting for socket: %w", a.name, ctx.Err())
		case <-time.After(a.pollInterval):
		}
	}
	total := time.Duration(a.pollAttempts) * a.pollInterval
	return fmt.Errorf("%s: socket %s did not appear within %v", a.name, socketPath, total)
}

// Stop stops and removes the container and unlinks the socket.
// Best-effort: it never fails, including before Start or twice.
func (a *Adapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.containerID != "" {
		ctx := context.Background()
		if err := a.engine.Stop(ctx, a.containerID); err != nil {
			logger.WithRuntime(a.id).Warn("stop container", "err", err)
		}
		if err := a.engine.Remove(ctx, a.containerID, true); err != nil {
			logger.WithRuntime(a.id).Warn("remove container", "err", err)
		}
		a.containerID = ""
	}
	_ = os.Remove(a.hostSocketPath())
	a.providers, a.tools = nil, nil
	return nil
}

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

// SetProviderOption validates against the cached descriptor and forwards
// to the runtime inside the container.
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

// Chat sends the conversation to the containerized runtime.
func (a *Adapter) Chat(ctx context.Context, providerID string, messages []chat.Message) (chat.Message, error) {
	if _, err := a.provider(providerID); err != nil {
		return chat.Message{}, err
	}
	return a.client.Chat(ctx, providerID, messages)
}

// RunModeTest runs a named built-in scenario against a provider.
func (a *Adapter) RunModeTest(ctx context.Context, providerID, mode string) (chat.Message, error) {
	if _, err := a.provider(providerID); err != nil {
		return chat.Message{}, err
	}
	return a.client.ModeTest(ctx, providerID, mode)
}

// RunTool executes a utility tool in the containerized runtime.
func (a *Adapter) RunTool(ctx context.Context, toolID, providerID string) (chat.Message, error) {
	a.mu.Lock()
	started := a.containerID != ""
	tools := a.tools
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
	return a.client.RunTool(ctx, toolID, providerID)
}

func (a *Adapter) provider(providerID string) (chat.Provider, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.containerID == "" {
		return chat.Provider{}, fmt.Errorf("%w: %s", runtime.ErrNotStarted, a.id)
	}
	for _, p := range a.providers {
		if p.ID == providerID {
			return p, nil
		}
	}
	return chat.Provider{}, fmt.Errorf("%w: %s", runtime.ErrUnknownProvider, providerID)
}
