// Package langbridge is the LangChain sidecar runtime: a Python process
// serving providers over the standard runtime socket protocol. It is the
// smallest possible subprocess runtime — all it supplies is the spawn
// command, the socket path and a check that Python is available.
package langbridge

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/ferrymanlabs/ferryman/internal/runtime/subprocess"
)

const (
	runtimeID   = "langbridge"
	runtimeName = "LangBridge"

	defaultPython = "python3"
	defaultModule = "langbridge.server"
	// SocketsBaseDir is where ferryman keeps its runtime sockets.
	SocketsBaseDir = "/tmp/ferryman-sockets"
)

// Config customizes the sidecar invocation. The zero value works when
// python3 is on PATH and the langbridge package is installed.
type Config struct {
	Python    string // interpreter, default "python3"
	Module    string // module run with -m, default "langbridge.server"
	SocketDir string // default SocketsBaseDir
}

type spec struct {
	cfg Config
}

// New builds the LangBridge subprocess adapter.
func New(cfg Config) *subprocess.Adapter {
	if cfg.Python == "" {
		cfg.Python = defaultPython
	}
	if cfg.Module == "" {
		cfg.Module = defaultModule
	}
	if cfg.SocketDir == "" {
		cfg.SocketDir = SocketsBaseDir
	}
	return subprocess.New(runtimeID, runtimeName, &spec{cfg: cfg})
}

func (s *spec) SocketPath() string {
	return filepath.Join(s.cfg.SocketDir, runtimeID+".sock")
}

func (s *spec) Command() []string {
	return []string{s.cfg.Python, "-m", s.cfg.Module, "--socket", s.SocketPath()}
}

// EnsureSetup verifies the interpreter exists. Idempotent.
func (s *spec) EnsureSetup(ctx context.Context) error {
	if _, err := exec.LookPath(s.cfg.Python); err != nil {
		return fmt.Errorf("%s: interpreter %q not found: %w", runtimeName, s.cfg.Python, err)
	}
	return nil
}
