package langbridge

import (
	"context"
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	a := New(Config{})
	if a.ID() != "langbridge" || a.Name() != "LangBridge" {
		t.Errorf("identity = %s / %s", a.ID(), a.Name())
	}
}

func TestSpecCommand(t *testing.T) {
	s := &spec{cfg: Config{Python: "python3", Module: "langbridge.server", SocketDir: "/tmp/sockets"}}

	if got, want := s.SocketPath(), "/tmp/sockets/langbridge.sock"; got != want {
		t.Errorf("SocketPath() = %q, want %q", got, want)
	}

	cmd := s.Command()
	want := []string{"python3", "-m", "langbridge.server", "--socket", "/tmp/sockets/langbridge.sock"}
	if len(cmd) != len(want) {
		t.Fatalf("Command() = %v", cmd)
	}
	for i := range want {
		if cmd[i] != want[i] {
			t.Errorf("Command()[%d] = %q, want %q", i, cmd[i], want[i])
		}
	}
}

func TestEnsureSetupMissingInterpreter(t *testing.T) {
	s := &spec{cfg: Config{Python: "definitely-not-a-python", Module: "m", SocketDir: t.TempDir()}}

	err := s.EnsureSetup(context.Background())
	if err == nil {
		t.Fatal("expected an error for a missing interpreter")
	}
	if !strings.Contains(err.Error(), "LangBridge") {
		t.Errorf("error %q does not name the runtime", err)
	}
}
