package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ferryman.jsonc"), []byte(content), 0o644))
	return dir
}

func TestStripJSONComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"line comment", "{\n// note\n\"a\": 1}\n", "{\n\n\"a\": 1}\n"},
		{"block comment", `{"a": /* gone */ 1}`, `{"a":  1}`},
		{"slashes inside string", `{"url": "http://example.com"}`, `{"url": "http://example.com"}`},
		{"no comments", `{"a": 1}`, `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, string(StripJSONComments([]byte(tt.in))))
		})
	}
}

func TestLoadJSONC(t *testing.T) {
	dir := writeConfig(t, `{
		// host settings
		"server": {
			"metrics_address": ":9100",
			"health_schedule": "*/5 * * * *"
		},
		"paths": {
			"socket_dir": "/tmp/test-sockets"
		},
		"runtimes": [
			{"id": "lang", "name": "Lang", "type": "subprocess", "command": ["python3", "-m", "lang.server"]},
			{"id": "boxed", "type": "container", "image": "example/runtime:1"}
		]
	}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, ":9100", cfg.Server.MetricsAddress)
	require.Equal(t, "*/5 * * * *", cfg.Server.HealthSchedule)
	require.Equal(t, "/tmp/test-sockets", cfg.Paths.SocketDir)
	// Defaults survive for sections the file omits.
	require.Equal(t, "logs", cfg.Paths.LogDir)
	require.Len(t, cfg.Runtimes, 2)
	require.Equal(t, TypeContainer, cfg.Runtimes[1].Type)
}

func TestLoadMissingDirFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		runtimes []RuntimeConfig
		wantErr  string
	}{
		{
			name:     "valid",
			runtimes: []RuntimeConfig{{ID: "a", Type: TypeLocal}},
		},
		{
			name:     "empty id",
			runtimes: []RuntimeConfig{{Type: TypeLocal}},
			wantErr:  "empty id",
		},
		{
			name:     "duplicate id",
			runtimes: []RuntimeConfig{{ID: "a", Type: TypeLocal}, {ID: "a", Type: TypeLocal}},
			wantErr:  "duplicate",
		},
		{
			name:     "subprocess without command",
			runtimes: []RuntimeConfig{{ID: "a", Type: TypeSubprocess}},
			wantErr:  "requires a command",
		},
		{
			name:     "container without image",
			runtimes: []RuntimeConfig{{ID: "a", Type: TypeContainer}},
			wantErr:  "requires an image",
		},
		{
			name:     "langbridge preset",
			runtimes: []RuntimeConfig{{ID: "langbridge", Type: TypeLangBridge}},
		},
		{
			name:     "langbridge with foreign id",
			runtimes: []RuntimeConfig{{ID: "a", Type: TypeLangBridge}},
			wantErr:  "must use id",
		},
		{
			name:     "unknown type",
			runtimes: []RuntimeConfig{{ID: "a", Type: "vm"}},
			wantErr:  "unknown type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Runtimes = tt.runtimes
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
