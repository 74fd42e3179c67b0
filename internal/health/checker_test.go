package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ferrymanlabs/ferryman/internal/chat"
	"github.com/ferrymanlabs/ferryman/internal/runtime"
	"github.com/ferrymanlabs/ferryman/internal/runtime/inproc"
)

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"* * * * *", false},
		{"*/5 * * * *", false},
		{"0 3 * * 1", false},
		{"* * * *", true},    // four fields
		{"61 * * * *", true}, // minute out of range
		{"not a cron", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateSchedule(tt.expr)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateSchedule(%q) = %v, wantErr %v", tt.expr, err, tt.wantErr)
		}
	}
}

func TestNewCheckerRejectsBadSchedule(t *testing.T) {
	if _, err := NewChecker(runtime.NewRegistry(), "bogus"); err == nil {
		t.Fatal("expected an error for an invalid schedule")
	}
}

// deadAdapter reports no providers, which the checker reads as down.
type deadAdapter struct{}

func (deadAdapter) ID() string                      { return "dead" }
func (deadAdapter) Name() string                    { return "Dead" }
func (deadAdapter) Start(ctx context.Context) error { return nil }
func (deadAdapter) Stop() error                     { return nil }
func (deadAdapter) Providers() []chat.Provider      { return nil }
func (deadAdapter) Tools() []chat.Tool              { return nil }

func (deadAdapter) SetProviderOption(ctx context.Context, providerID, optionID string, value any) error {
	return nil
}

func (deadAdapter) Chat(ctx context.Context, providerID string, messages []chat.Message) (chat.Message, error) {
	return chat.Message{}, nil
}

func (deadAdapter) RunModeTest(ctx context.Context, providerID, mode string) (chat.Message, error) {
	return chat.Message{}, nil
}

func (deadAdapter) RunTool(ctx context.Context, toolID, providerID string) (chat.Message, error) {
	return chat.Message{}, nil
}

// socketAdapter caches a provider list like the process-backed adapters
// do, so only the socket file tells the checker whether it is alive.
type socketAdapter struct {
	deadAdapter
	socket string
}

func (s socketAdapter) ID() string                 { return "socketed" }
func (s socketAdapter) Providers() []chat.Provider { return []chat.Provider{{ID: "echo"}} }
func (s socketAdapter) SocketPath() string         { return s.socket }

func TestCheckAllStatsRuntimeSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "rt.sock")
	if err := os.WriteFile(socket, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	registry := runtime.NewRegistry()
	if err := registry.Register(socketAdapter{socket: socket}); err != nil {
		t.Fatal(err)
	}
	checker, err := NewChecker(registry, "* * * * *")
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}

	checker.CheckAll()
	if s := checker.Snapshot()[0]; !s.Up {
		t.Errorf("runtime with live socket reported down: %+v", s)
	}

	// The cached providers survive the child; the missing socket must
	// flip the runtime to down anyway.
	if err := os.Remove(socket); err != nil {
		t.Fatal(err)
	}
	checker.CheckAll()
	if s := checker.Snapshot()[0]; s.Up {
		t.Errorf("runtime with dead socket reported up: %+v", s)
	}
}

func TestCheckAll(t *testing.T) {
	registry := runtime.NewRegistry()
	live := inproc.New()
	if err := registry.Register(live); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register(deadAdapter{}); err != nil {
		t.Fatal(err)
	}

	checker, err := NewChecker(registry, "* * * * *")
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}

	checker.CheckAll()

	byID := make(map[string]Status)
	for _, s := range checker.Snapshot() {
		byID[s.RuntimeID] = s
	}
	if len(byID) != 2 {
		t.Fatalf("snapshot has %d entries", len(byID))
	}
	if !byID[live.ID()].Up {
		t.Errorf("inproc runtime reported down")
	}
	if byID[live.ID()].Providers == 0 {
		t.Errorf("inproc runtime reported no providers")
	}
	if byID["dead"].Up {
		t.Errorf("dead runtime reported up")
	}
}
