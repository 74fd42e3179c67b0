// Package subprocess implements the runtime.Adapter lifecycle and chat
// transport generically for any runtime realized as an external OS
// process exposing a unix socket.
//
// adapter.go - process supervision and socket readiness
//
// A concrete runtime only supplies a Spec: the spawn command, the socket
// path, and environment preparation. Everything else — spawning, output
// forwarding, readiness polling, the RPC-backed chat operations and
// teardown — lives here.
package subprocess

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/ferrymanlabs/ferryman/internal/chat"
	"github.com/ferrymanlabs/ferryman/internal/logger"
	"github.com/ferrymanlabs/ferryman/internal/metrics"
	"github.com/ferrymanlabs/ferryman/internal/rpc"
	"github.com/ferrymanlabs/ferryman/internal/runtime"
)

const (
	// Socket readiness is polled at a fixed interval up to a fixed
	// number of attempts; the socket file's appearance is the sole
	// readiness signal.
	readyPollInterval = 100 * time.Millisecond
	readyPollAttempts = 50

	// stderrCaptureLimit bounds how much child stderr is retained for
	// inclusion in startup error messages.
	stderrCaptureLimit = 8 << 10
)

// Spec is what a concrete subprocess runtime must supply.
type Spec interface {
	// SocketPath returns the socket path, deterministic and stable for
	// the lifetime of the runtime instance.
	SocketPath() string

	// Command returns the executable and argument vector to spawn.
	Command() []string

	// EnsureSetup prepares the runtime environment, e.g. verifying that
	// dependent tooling is installed. Idempotent; may be slow; a failure
	// is fatal to Start before any process is spawned.
	EnsureSetup(ctx context.Context) error
}

// Adapter supervises one child process and serves the runtime.Adapter
// contract over its socket. At most one live process per Adapter
// instance: Start while running tears down the previous child first.
type Adapter struct {
	id     string
	name   string
	spec   Spec
	client *rpc.Client

	// Readiness polling knobs, fixed in production and shortened by
	// in-package tests.
	pollInterval time.Duration
	pollAttempts int

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{} // closed once the exit observer has reaped the child

	stderrMu sync.Mutex
	stderr   strings.Builder

	providers []chat.Provider
	tools     []chat.Tool
}

var _ runtime.Adapter = (*Adapter)(nil)

// New creates an adapter for the given spec. name may be empty, in which
// case the ID doubles as the display name.
func New(id, name string, spec Spec) *Adapter {
	if name == "" {
		name = id
	}
	return &Adapter{
		id:           id,
		name:         name,
		spec:         spec,
		client:       &rpc.Client{SocketPath: spec.SocketPath(), Runtime: id},
		pollInterval: readyPollInterval,
		pollAttempts: readyPollAttempts,
	}
}

// ID returns the runtime's machine identifier.
func (a *Adapter) ID() string { return a.id }

// Name returns the runtime's display name.
func (a *Adapter) Name() string { return a.name }

// SocketPath returns the unix socket this adapter's child listens on.
func (a *Adapter) SocketPath() string { return a.spec.SocketPath() }

// Start prepares the environment, spawns the child process and waits for
// its socket to appear. On a readiness timeout the error carries the
// runtime name and any stderr captured so far, and the child is left
// running so the caller can still Stop it.
func (a *Adapter) Start(ctx context.Context) error {
	// Setup failures propagate unchanged; nothing has been spawned yet.
	if err := a.spec.EnsureSetup(ctx); err != nil {
		return err
	}

	socketPath := a.spec.SocketPath()
	if err := os.Remove(socketPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: remove stale socket %s: %w", a.name, socketPath, err)
	}

	if err := a.spawn(); err != nil {
		return err
	}

	if err := a.waitReady(ctx, socketPath); err != nil {
		return err
	}

	// Capability discovery, cached for the lifetime of this instance.
	// The socket file can appear a beat before the listener accepts, so
	// a transport error here may be that race surfacing; it is reported
	// as-is rather than retried.
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

	logger.WithRuntime(a.id).Info("runtime started",
		"socket", socketPath, "providers", len(providers), "tools", len(tools))
	return nil
}

// spawn launches the child process and wires up output forwarding and
// the exit observer. Replaces any previously running child.
func (a *Adapter) spawn() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// At most one live process per adapter instance.
	a.stopLocked()

	argv := a.spec.Command()
	if len(argv) == 0 {
		return fmt.Errorf("%s: empty command", a.name)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = os.Environ() // inherited verbatim, nothing added or stripped
	cmd.Stdin = nil        // standard input discarded

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%s: stdout pipe: %w", a.name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%s: stderr pipe: %w", a.name, err)
	}

	a.stderrMu.Lock()
	a.stderr.Reset()
	a.stderrMu.Unlock()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: spawn %q: %w", a.name, argv[0], err)
	}

	var forwarders sync.WaitGroup
	forwarders.Add(2)
	go func() {
		defer forwarders.Done()
		a.forward(stdout, false)
	}()
	go func() {
		defer forwarders.Done()
		a.forward(stderr, true)
	}()

	done := make(chan struct{})
	a.cmd, a.done = cmd, done
	go a.observe(cmd, done, &forwarders)
	return nil
}

// forward copies child output to the host log line-by-line, prefixed
// with the runtime's display name. Stderr lines are also retained (up to
// stderrCaptureLimit) for startup diagnostics.
func (a *Adapter) forward(r io.Reader, isStderr bool) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if isStderr {
			a.stderrMu.Lock()
			if a.stderr.Len() < stderrCaptureLimit {
				a.stderr.WriteString(line)
				a.stderr.WriteByte('\n')
			}
			a.stderrMu.Unlock()
		}
		logger.Slog().Info("[" + a.name + "] " + line)
	}
}

// observe reaps the child and logs abnormal exits. No restart is
// attempted; in-flight RPC calls observe a transport error instead.
// Wait closes the pipes, so both forwarders must drain first or
// trailing output (notably the stderr carried by startup errors)
// could be lost.
func (a *Adapter) observe(cmd *exec.Cmd, done chan struct{}, forwarders *sync.WaitGroup) {
	defer close(done)
	forwarders.Wait()
	err := cmd.Wait()
	if err != nil {
		logger.WithRuntime(a.id).Error("runtime subprocess exited", "err", err)
		metrics.RecordSubprocessExit(a.id, "error")
		return
	}
	metrics.RecordSubprocessExit(a.id, "ok")
}

// waitReady polls for the socket file's existence.
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
	return fmt.Errorf("%s: socket %s did not appear within %v; stderr: %s",
		a.name, socketPath, total, a.capturedStderr())
}

func (a *Adapter) capturedStderr() string {
	a.stderrMu.Lock()
	defer a.stderrMu.Unlock()
	return strings.TrimSpace(a.stderr.String())
}

// Stop kills the child process and removes the socket file. Best-effort:
// it never fails, including before Start or when called twice.
func (a *Adapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
	return nil
}

// stopLocked is the teardown shared by Stop and Start-over-Start.
// Caller holds a.mu.
func (a *Adapter) stopLocked() {
	if a.cmd != nil {
		if proc := a.cmd.Process; proc != nil {
			if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				logger.WithRuntime(a.id).Warn("kill runtime subprocess", "err", err)
			}
		}
		if a.done != nil {
			<-a.done
		}
		a.cmd, a.done = nil, nil
	}
	_ = os.Remove(a.spec.SocketPath())
	a.providers, a.tools = nil, nil
}
