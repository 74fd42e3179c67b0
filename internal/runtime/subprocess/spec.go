package subprocess

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// StaticSpec is a Spec for runtimes fully described by configuration:
// an argv to spawn and a socket path to hand it. The socket path is
// appended to the command as "--socket <path>", the convention every
// bundled runtime follows.
type StaticSpec struct {
	Socket string
	Argv   []string
}

var _ Spec = (*StaticSpec)(nil)

func (s *StaticSpec) SocketPath() string { return s.Socket }

func (s *StaticSpec) Command() []string {
	return append(append([]string{}, s.Argv...), "--socket", s.Socket)
}

// EnsureSetup verifies the executable resolves and the socket directory
// exists. Idempotent.
func (s *StaticSpec) EnsureSetup(ctx context.Context) error {
	if len(s.Argv) == 0 {
		return errors.New("empty command")
	}
	if _, err := exec.LookPath(s.Argv[0]); err != nil {
		return fmt.Errorf("executable %q not found: %w", s.Argv[0], err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Socket), 0o755); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}
	return nil
}
